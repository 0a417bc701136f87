package main

import (
	"errors"
	"fmt"

	"github.com/dailyfocus/internal/db"
	"github.com/spf13/cobra"
)

var (
	initUsername string
	initPassword string
)

var initUserCmd = &cobra.Command{
	Use:   "init-user",
	Short: "Create a login account if it does not exist",
	Long: `Create a bcrypt-hashed account. Username and password fall back to
SUPER_ROOT_USER_NAME / SUPER_ROOT_PASSWORD when the flags are omitted.`,
	RunE: runInitUser,
}

func init() {
	initUserCmd.Flags().StringVar(&initUsername, "username", "", "Account name")
	initUserCmd.Flags().StringVar(&initPassword, "password", "", "Account password")
}

func runInitUser(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	username := initUsername
	if username == "" {
		username = cfg.SuperRootUserName
	}
	password := initPassword
	if password == "" {
		password = cfg.SuperRootPassword
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	created, err := db.EnsureUser(username, password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	out := cmd.OutOrStdout()
	if !created {
		fmt.Fprintf(out, "用户 %s 已存在，无需初始化\n", username)
		return nil
	}
	fmt.Fprintf(out, "用户 %s 创建成功\n", username)
	return nil
}
