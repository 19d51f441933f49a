package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	profileSetCmd.Flags().String("name", "", "display name")
	profileSetCmd.Flags().String("date", "", "the era you are writing from")
	profileSetCmd.Flags().String("oc", "", "original character")

	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the local identity",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderProfile(sess.out, sess.app.Profile(), sess.app.IsAdmin())
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Overwrite fields of the current profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := sess.app.Profile()
		if cmd.Flags().Changed("name") {
			p.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("date") {
			p.Date, _ = cmd.Flags().GetString("date")
		}
		if cmd.Flags().Changed("oc") {
			p.OC, _ = cmd.Flags().GetString("oc")
		}
		if err := sess.app.SaveProfile(p); err != nil {
			return err
		}
		renderProfile(sess.out, p, sess.app.IsAdmin())
		return nil
	},
}
