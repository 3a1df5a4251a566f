package cli

import (
	"github.com/spf13/cobra"

	"colonyledger/internal/core"
)

// RequestCmd returns the request workflow command tree.
func RequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit and resolve transfer, breeding, and culling requests",
	}
	cmd.AddCommand(requestListCmd())
	cmd.AddCommand(requestTransferCmd())
	cmd.AddCommand(requestBreedingCmd())
	cmd.AddCommand(requestCullingCmd())
	cmd.AddCommand(requestApproveCmd())
	cmd.AddCommand(requestRejectCmd())
	cmd.AddCommand(requestCancelCmd())
	return cmd
}

func requestListCmd() *cobra.Command {
	var requester string
	var animal string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			switch {
			case requester != "":
				return printJSON(svc.OpenRequestsForRequester(cmd.Context(), requester))
			case animal != "":
				return printJSON(svc.OpenRequestsForAnimal(cmd.Context(), animal))
			default:
				return printJSON(svc.Store().ListRequests())
			}
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "filter pending requests by requester")
	cmd.Flags().StringVar(&animal, "animal", "", "filter pending requests by subject animal")
	return cmd
}

func requestTransferCmd() *cobra.Command {
	var requester, animal, source, destination string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Submit a transfer request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			req := core.TransferRequest{
				AnimalID:          animal,
				SourceCageID:      source,
				DestinationCageID: destination,
			}
			req.RequesterID = requester
			created, _, err := svc.SubmitTransferRequest(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "requester identity")
	cmd.Flags().StringVar(&animal, "animal", "", "animal ID")
	cmd.Flags().StringVar(&source, "from", "", "source cage ID")
	cmd.Flags().StringVar(&destination, "to", "", "destination cage ID")
	_ = cmd.MarkFlagRequired("requester")
	_ = cmd.MarkFlagRequired("animal")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func requestBreedingCmd() *cobra.Command {
	var requester, male, female, cage string
	cmd := &cobra.Command{
		Use:   "breeding",
		Short: "Submit a breeding request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			req := core.BreedingRequest{
				MaleID:   male,
				FemaleID: female,
				CageID:   cage,
			}
			req.RequesterID = requester
			created, _, err := svc.SubmitBreedingRequest(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "requester identity")
	cmd.Flags().StringVar(&male, "male", "", "male animal ID")
	cmd.Flags().StringVar(&female, "female", "", "female animal ID")
	cmd.Flags().StringVar(&cage, "cage", "", "target cage ID")
	_ = cmd.MarkFlagRequired("requester")
	_ = cmd.MarkFlagRequired("male")
	_ = cmd.MarkFlagRequired("female")
	_ = cmd.MarkFlagRequired("cage")
	return cmd
}

func requestCullingCmd() *cobra.Command {
	var requester, animal string
	cmd := &cobra.Command{
		Use:   "culling",
		Short: "Submit a culling request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			req := core.CullingRequest{AnimalID: animal}
			req.RequesterID = requester
			created, _, err := svc.SubmitCullingRequest(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&requester, "requester", "", "requester identity")
	cmd.Flags().StringVar(&animal, "animal", "", "animal ID")
	_ = cmd.MarkFlagRequired("requester")
	_ = cmd.MarkFlagRequired("animal")
	return cmd
}

func requestApproveCmd() *cobra.Command {
	var approver string
	cmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a pending request, applying its side effects atomically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if _, err := svc.ApproveRequest(cmd.Context(), args[0], approver); err != nil {
				return err
			}
			request, err := svc.GetRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(request)
		},
	}
	cmd.Flags().StringVar(&approver, "approver", "", "approver identity")
	_ = cmd.MarkFlagRequired("approver")
	return cmd
}

func requestRejectCmd() *cobra.Command {
	var approver, comments string
	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if _, err := svc.RejectRequest(cmd.Context(), args[0], approver, comments); err != nil {
				return err
			}
			request, err := svc.GetRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(request)
		},
	}
	cmd.Flags().StringVar(&approver, "approver", "", "approver identity")
	cmd.Flags().StringVar(&comments, "comments", "", "reason for rejection")
	_ = cmd.MarkFlagRequired("approver")
	return cmd
}

func requestCancelCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "cancel <request-id>",
		Short: "Cancel a pending request you submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if _, err := svc.CancelRequest(cmd.Context(), args[0], actor); err != nil {
				return err
			}
			cmd.Println("request cancelled")
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "acting requester identity")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
