package main

import (
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <id>",
		Short: "Fetch a service's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "query_service", map[string]interface{}{"id": args[0]})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Force-deactivate and remove a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "remove_service", map[string]interface{}{"id": args[0]})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every managed service id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "list_services", nil)
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
}

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage <id>",
		Short: "Read one service's current CPU and memory usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "query_service_resource_usage", map[string]interface{}{"id": args[0]})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
}

var totalUsageCollectMethod string

func newTotalUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "total-usage",
		Short: "Read total CPU and memory usage across the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "query_total_resource_usage",
					map[string]interface{}{"collect_method": totalUsageCollectMethod})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&totalUsageCollectMethod, "collect-method", "SumIndividual", "SumIndividual or Psutil")
	return cmd
}
