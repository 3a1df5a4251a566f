package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"colonyledger/internal/core"
	"colonyledger/pkg/domain"
)

// AnimalCmd returns the animal management command tree.
func AnimalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "animal",
		Short: "Manage animals and their housing",
	}
	cmd.AddCommand(animalListCmd())
	cmd.AddCommand(animalCreateCmd())
	cmd.AddCommand(animalPlaceCmd())
	cmd.AddCommand(animalHistoryCmd())
	cmd.AddCommand(animalLineageCmd())
	cmd.AddCommand(animalWeighCmd())
	return cmd
}

func animalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all animals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			return printJSON(svc.ListAnimals(cmd.Context()))
		},
	}
}

func animalCreateCmd() *cobra.Command {
	var (
		strainID string
		tubeID   int
		sex      string
		dob      string
		motherID string
		fatherID string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new animal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			animal := core.Animal{
				StrainID: strainID,
				TubeID:   tubeID,
				Sex:      domain.Sex(sex),
			}
			if dob != "" {
				parsed, err := time.Parse("2006-01-02", dob)
				if err != nil {
					return fmt.Errorf("parse date of birth: %w", err)
				}
				animal.DateOfBirth = parsed
			}
			if motherID != "" {
				animal.MotherID = &motherID
			}
			if fatherID != "" {
				animal.FatherID = &fatherID
			}
			created, _, err := svc.CreateAnimal(cmd.Context(), animal)
			if err != nil {
				return err
			}
			return printJSON(created)
		},
	}
	cmd.Flags().StringVar(&strainID, "strain", "", "strain ID")
	cmd.Flags().IntVar(&tubeID, "tube", 0, "tube number, unique within the strain")
	cmd.Flags().StringVar(&sex, "sex", "", "sex (M or F)")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&motherID, "mother", "", "mother animal ID")
	cmd.Flags().StringVar(&fatherID, "father", "", "father animal ID")
	_ = cmd.MarkFlagRequired("strain")
	_ = cmd.MarkFlagRequired("sex")
	return cmd
}

func animalPlaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "place <animal-id> <cage-id>",
		Short: "House an unhoused animal in a cage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			interval, _, err := svc.PlaceAnimal(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(interval)
		},
	}
}

func animalHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <animal-id>",
		Short: "Show an animal's occupancy history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			if _, err := svc.GetAnimal(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(svc.OccupancyHistory(cmd.Context(), args[0]))
		},
	}
}

func animalLineageCmd() *cobra.Command {
	var descendants bool
	cmd := &cobra.Command{
		Use:   "lineage <animal-id>",
		Short: "Show an animal's ancestors (or descendants)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			var animals []core.Animal
			var warnings []string
			if descendants {
				animals, warnings, err = svc.Descendants(cmd.Context(), args[0])
			} else {
				animals, warnings, err = svc.Ancestors(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
			}
			return printJSON(animals)
		},
	}
	cmd.Flags().BoolVar(&descendants, "descendants", false, "list descendants instead of ancestors")
	return cmd
}

func animalWeighCmd() *cobra.Command {
	var grams float64
	cmd := &cobra.Command{
		Use:   "weigh <animal-id>",
		Short: "Record a weight measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			record, _, err := svc.AddWeightRecord(cmd.Context(), core.WeightRecord{
				AnimalID: args[0],
				Grams:    grams,
			})
			if err != nil {
				return err
			}
			return printJSON(record)
		},
	}
	cmd.Flags().Float64Var(&grams, "grams", 0, "weight in grams")
	_ = cmd.MarkFlagRequired("grams")
	return cmd
}
