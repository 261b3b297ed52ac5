package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/credential"
)

func probeCmd() *cobra.Command {
	return configCommand("probe", "Find a working cookie and print its account info",
		`Probe the cookies from --cookie and the cookie file in order, stop at the first one Yuanbao accepts and print its account info. --save-user also writes it to --user-file.`,
		nil,
		func(cfg config.Config, logger *slog.Logger, _ []string) error {
			cookie, info, err := findCredential(context.Background(), cfg, newAgents(), logger)
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, info.Raw, "", "    "); err != nil {
				pretty.Reset()
				pretty.Write(info.Raw)
			}
			fmt.Printf("cookie:  %s\n", credential.Mask(cookie))
			fmt.Printf("user id: %s\n", info.UserID)
			fmt.Println(pretty.String())
			if cfg.SaveUserInfo {
				fmt.Printf("saved to %s\n", cfg.UserInfoFile)
			}
			return nil
		})
}
