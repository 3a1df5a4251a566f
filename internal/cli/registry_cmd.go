package cli

import (
	"github.com/spf13/cobra"

	"colonyledger/internal/core"
)

// StrainCmd returns the strain management command tree.
func StrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strain",
		Short: "Manage strains",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all strains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return printJSON(svc.ListStrains(cmd.Context()))
		},
	})
	cmd.AddCommand(strainCreateCmd())
	return cmd
}

func strainCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new strain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			created, _, err := svc.CreateStrain(cmd.Context(), core.Strain{Name: name})
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "unique strain name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// CageCmd returns the cage management command tree.
func CageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cage",
		Short: "Manage cages",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all cages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return printJSON(svc.ListCages(cmd.Context()))
		},
	})
	cmd.AddCommand(cageCreateCmd())
	cmd.AddCommand(cageOccupantsCmd())
	return cmd
}

func cageCreateCmd() *cobra.Command {
	var number, cageType, location string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new cage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			created, _, err := svc.CreateCage(cmd.Context(), core.Cage{
				Number:   number,
				Type:     cageType,
				Location: location,
			})
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "unique cage number")
	cmd.Flags().StringVar(&cageType, "type", "", "cage type")
	cmd.Flags().StringVar(&location, "location", "", "cage location")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func cageOccupantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "occupants <cage-id>",
		Short: "List the animals currently housed in a cage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			occupants, err := svc.CageOccupants(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(occupants)
		},
	}
}

// PairCmd returns the breeding pair command tree.
func PairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Manage breeding pairs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all breeding pairs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return printJSON(svc.Store().ListBreedingPairs())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "end <pair-id>",
		Short: "End an active pairing, reverting both animals to alive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			ended, _, err := svc.EndBreedingPair(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(ended)
		},
	})
	return cmd
}

// NotificationCmd returns the notification command tree.
func NotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notification",
		Short: "Read workflow notifications",
	}
	cmd.AddCommand(notificationListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			updated, _, err := svc.MarkNotificationRead(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	})
	return cmd
}

func notificationListCmd() *cobra.Command {
	var recipient string
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications for a recipient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if unread {
				return printJSON(svc.UnreadNotifications(cmd.Context(), recipient))
			}
			return printJSON(svc.Notifications(cmd.Context(), recipient))
		},
	}
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient identity")
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}
