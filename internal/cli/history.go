package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded topologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := db.ListTopologies(limit)
			if err != nil {
				return err
			}
			total, err := db.CountTopologies()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				printInfo(out, "No topologies recorded")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				boss := "-"
				if s.BossRoom != nil {
					boss = strconv.Itoa(*s.BossRoom)
				}
				rows = append(rows, []string{
					s.ID,
					strconv.Itoa(s.Rooms),
					boss,
					strconv.FormatInt(s.Seed, 10),
					strconv.Itoa(s.Attempts),
					shortFingerprint(s.Fingerprint),
					s.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			printTable(out, []string{"ID", "Rooms", "Boss", "Seed", "Attempts", "Fingerprint", "Created"}, rows, nil)
			printInfo(out, "Showing %d of %d", len(list), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to show")
	return cmd
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
