// Copyright (c) 2025 ToeiRei
// Gitomaster - gitolite configuration management
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toeirei/gitomaster/internal/git"
	"github.com/toeirei/gitomaster/internal/gitolite"
	"github.com/toeirei/gitomaster/internal/i18n"
	"github.com/toeirei/gitomaster/internal/model"
	"github.com/toeirei/gitomaster/internal/sshkey"
)

// withConfig loads the configuration repository, runs fn against the model,
// and, when fn made a change, applies it with the given commit message.
func withConfig(cmd *cobra.Command, message string, fn func(cfg *model.Config) error) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg, err := mgr.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	if message == "" {
		return nil
	}
	if err := mgr.Apply(ctx, message); err != nil {
		if errors.Is(err, git.ErrPushRejected) {
			return fmt.Errorf("%s: %w", i18n.T("apply.rejected"), err)
		}
		return err
	}
	fmt.Println(i18n.T("apply.success"))
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration in canonical form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConfig(cmd, "", func(cfg *model.Config) error {
			return gitolite.Write(cfg, os.Stdout)
		})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <repo> <level> <user|@group>",
	Short: "Grant a permission level on a repository",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoName, token, subject := args[0], args[1], args[2]
		level, err := model.ParsePermission(token)
		if err != nil {
			return err
		}
		message := fmt.Sprintf("Grant %s on %s to %s.", level.Level(), repoName, subject)
		return withConfig(cmd, message, func(cfg *model.Config) error {
			repo, err := cfg.EnsureRepository(repoName)
			if err != nil {
				return err
			}
			id, err := cfg.ResolveIdentity(subject)
			if err != nil {
				return err
			}
			repo.Grant(level, id)
			fmt.Println(i18n.T("grant.done"))
			return nil
		})
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <repo> <level> <user|@group>",
	Short: "Revoke a permission level on a repository",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoName, token, subject := args[0], args[1], args[2]
		level, err := model.ParsePermission(token)
		if err != nil {
			return err
		}
		message := fmt.Sprintf("Revoke %s on %s from %s.", level.Level(), repoName, subject)
		return withConfig(cmd, message, func(cfg *model.Config) error {
			repo := cfg.Repository(repoName)
			if repo == nil {
				return fmt.Errorf("unknown repository %q", repoName)
			}
			id, err := cfg.ResolveIdentity(subject)
			if err != nil {
				return err
			}
			repo.Revoke(level, id)
			fmt.Println(i18n.T("revoke.done"))
			return nil
		})
	},
}

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage group membership",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <@group> <member>",
		Short: "Add a member to a group, creating the group if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupName, member := args[0], args[1]
			message := fmt.Sprintf("Add %s to %s.", member, groupName)
			return withConfig(cmd, message, func(cfg *model.Config) error {
				group, err := cfg.EnsureGroup(groupName)
				if err != nil {
					return err
				}
				group.AddMember(member)
				fmt.Println(i18n.T("group.member_added"))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <@group> <member>",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupName, member := args[0], args[1]
			message := fmt.Sprintf("Remove %s from %s.", member, groupName)
			return withConfig(cmd, message, func(cfg *model.Config) error {
				group := cfg.Group(groupName)
				if group == nil {
					return fmt.Errorf("unknown group %q", groupName)
				}
				group.RemoveMember(member)
				fmt.Println(i18n.T("group.member_removed"))
				return nil
			})
		},
	})
	return cmd
}

func newKeyCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage SSH public keys",
	}

	addCmd := &cobra.Command{
		Use:   "add <user> <keyfile>",
		Short: "Register a public key for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userName, keyFile := args[0], args[1]
			raw, err := os.ReadFile(keyFile)
			if err != nil {
				return err
			}
			line := strings.TrimSpace(string(raw))
			if err := sshkey.Validate(line); err != nil {
				return err
			}
			material, err := sshkey.Material(line)
			if err != nil {
				return err
			}
			message := fmt.Sprintf("Add key %q for %s.", label, userName)
			return withConfig(cmd, message, func(cfg *model.Config) error {
				user, err := cfg.EnsureUser(userName)
				if err != nil {
					return err
				}
				user.SetKey(label, material)
				fmt.Println(i18n.T("key.added"))
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&label, "label", "", "key label (empty for the default key)")

	removeCmd := &cobra.Command{
		Use:   "remove <user>",
		Short: "Remove a public key from a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userName := args[0]
			message := fmt.Sprintf("Remove key %q from %s.", label, userName)
			return withConfig(cmd, message, func(cfg *model.Config) error {
				user := cfg.User(userName)
				if user == nil {
					return fmt.Errorf("unknown user %q", userName)
				}
				if _, ok := user.Key(label); !ok {
					return fmt.Errorf("user %q has no key labeled %q", userName, label)
				}
				user.RemoveKey(label)
				fmt.Println(i18n.T("key.removed"))
				return nil
			})
		},
	}
	removeCmd.Flags().StringVar(&label, "label", "", "key label (empty for the default key)")

	cmd.AddCommand(addCmd)
	cmd.AddCommand(removeCmd)
	return cmd
}

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repositories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Declare a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			message := fmt.Sprintf("Add repository %s.", name)
			return withConfig(cmd, message, func(cfg *model.Config) error {
				if _, err := cfg.EnsureRepository(name); err != nil {
					return err
				}
				fmt.Println(i18n.T("repo.added"))
				return nil
			})
		},
	})
	return cmd
}
