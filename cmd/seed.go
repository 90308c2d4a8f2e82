package cmd

import (
	"context"
	"fmt"
	"strings"

	"clinic-booking/internal/data/entity"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var specialties = []string{
	"General Physician",
	"Gynecologist",
	"Dermatologist",
	"Pediatrician",
	"Neurologist",
	"Gastroenterologist",
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake directory doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}

			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := context.Background()
			st, err := openStore(ctx, config, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			for i := 0; i < count; i++ {
				doctor := fakeDoctor()
				if err := st.Repo.Doctor.Create(ctx, doctor); err != nil {
					return fmt.Errorf("seed doctor %d: %w", i+1, err)
				}
				fmt.Printf("%s  %-28s %-20s %s\n", doctor.ID, doctor.Name, doctor.Specialty, doctor.Fee.StringFixed(2))
			}

			logger.Info("Doctors seeded", zap.Int("count", count))
			return nil
		},
	}
	cmd.Flags().Int("count", 10, "Number of doctors to create")
	return cmd
}

func fakeDoctor() *entity.Doctor {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	email := strings.ToLower(fmt.Sprintf("%s.%s.%d@clinic.test", first, last, gofakeit.Number(100, 999)))

	return &entity.Doctor{
		Base:         entity.Base{ID: uuid.New()},
		Name:         "Dr. " + first + " " + last,
		Email:        email,
		Specialty:    specialties[gofakeit.Number(0, len(specialties)-1)],
		Fee:          decimal.NewFromInt(int64(gofakeit.Number(20, 150))),
		Image:        gofakeit.URL(),
		AddressLine1: gofakeit.Street(),
		AddressLine2: gofakeit.City(),
		Active:       true,
	}
}
