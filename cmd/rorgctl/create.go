package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var createFlags struct {
	id                 string
	serviceType        string
	runMode            string
	image              string
	command            []string
	env                []string
	impliedDeps        []string
	groupMembers       []string
	disableDeactivate  bool
	enabled            bool
}

func buildServiceOptionsArgs() map[string]interface{} {
	args := map[string]interface{}{
		"id":                  createFlags.id,
		"type":                createFlags.serviceType,
		"run_mode":            createFlags.runMode,
		"enabled":             createFlags.enabled,
		"disable_deactivate":  createFlags.disableDeactivate,
		"implied_dependencies": createFlags.impliedDeps,
	}

	if createFlags.serviceType == "Docker" {
		env := map[string]string{}
		for _, kv := range createFlags.env {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				env[parts[0]] = parts[1]
			}
		}
		args["docker"] = map[string]interface{}{
			"image":   createFlags.image,
			"command": createFlags.command,
			"env":     env,
		}
	}
	if createFlags.serviceType == "Group" {
		args["group"] = map[string]interface{}{"grouped_services": createFlags.groupMembers}
	}
	return args
}

func registerServiceOptionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&createFlags.id, "id", "", "service id, ns0/ns1/.../nsK:name")
	flags.StringVar(&createFlags.serviceType, "type", "Docker", "Docker, Group, or Meta")
	flags.StringVar(&createFlags.runMode, "run-mode", "Real", "Real or Simulation")
	flags.StringVar(&createFlags.image, "image", "", "docker image (Docker services only)")
	flags.StringSliceVar(&createFlags.command, "command", nil, "container command override")
	flags.StringSliceVar(&createFlags.env, "env", nil, "KEY=VALUE environment entries, repeatable")
	flags.StringSliceVar(&createFlags.impliedDeps, "implied-dependency", nil, "implied dependency service ids, repeatable")
	flags.StringSliceVar(&createFlags.groupMembers, "member", nil, "grouped service ids (Group services only), repeatable")
	flags.BoolVar(&createFlags.disableDeactivate, "disable-deactivate", false, "refuse to deactivate once active")
	flags.BoolVar(&createFlags.enabled, "enabled", true, "whether the service is enabled")
	_ = cmd.MarkFlagRequired("id")
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "create_service", buildServiceOptionsArgs())
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
	registerServiceOptionFlags(cmd)
	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace an existing service's options",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *rorgClient) error {
				resp, err := c.call(cmd.Context(), "update_service", buildServiceOptionsArgs())
				if err != nil {
					return err
				}
				printJSON(resp)
				return nil
			})
		},
	}
	registerServiceOptionFlags(cmd)
	return cmd
}
