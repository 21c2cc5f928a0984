package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var requestFlags struct {
	issuer  string
	uuid    string
	targets []string
	wait    bool
}

// newRequestCmd issues a Request and, when --wait is set, blocks until
// the facade reports every returned DelayedAction has resolved before
// returning — the client-side wait-for-ready pattern recovered from the
// original implementation's always-on request helper.
func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Issue a request against one or more target services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				reqUUID := requestFlags.uuid
				if reqUUID == "" {
					reqUUID = uuid.NewString()
				}
				resp, err := c.call(cmd.Context(), "request_service", map[string]interface{}{
					"issuer":         requestFlags.issuer,
					"uuid":           reqUUID,
					"targets":        requestFlags.targets,
					"wait_for_ready": requestFlags.wait,
				})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&requestFlags.issuer, "issuer", "__builtin:__operator", "issuing service id; defaults to the built-in operator")
	flags.StringVar(&requestFlags.uuid, "uuid", "", "request id, unique per issuer; a random one is generated if omitted")
	flags.StringSliceVar(&requestFlags.targets, "target", nil, "target service id, repeatable")
	flags.BoolVar(&requestFlags.wait, "wait", false, "block until every returned delayed action resolves")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newReleaseCmd() *cobra.Command {
	var issuer, uuid string
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release a previously issued request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "release_service", map[string]interface{}{
					"issuer": issuer,
					"uuid":   uuid,
				})
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", "__builtin:__operator", "issuing service id")
	cmd.Flags().StringVar(&uuid, "uuid", "", "the request id to release")
	_ = cmd.MarkFlagRequired("uuid")
	return cmd
}
