package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"hourtrim/core/auth"
	"hourtrim/db"
	"hourtrim/repository"

	"github.com/spf13/cobra"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "管理登录账号",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "创建账号",
	Long:  `创建一个账号。未指定 --password 时从标准输入读取一行作为密码。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		ctx := cmd.Context()
		conn, err := db.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.InitDB(ctx, conn); err != nil {
			return err
		}

		svc := auth.NewService(repository.NewSQLUserRepository(conn), auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL()))
		if err := svc.Signup(ctx, args[0], password); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s created\n", strings.TrimSpace(args[0]))
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", os.Getenv("HOURTRIM_PASSWORD"), "password (default: read from stdin)")
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
