package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"medhead-reservation/cmd/bootstrap"
	"medhead-reservation/config"
	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/domain/entity"
	"medhead-reservation/internal/service"
	"medhead-reservation/internal/usecase"
	"medhead-reservation/pkg/validator"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// errInvalidDetails is returned before any backend call when a flag is out of range or blank
var errInvalidDetails = errors.New("invalid reservation details")

// errUrgencyDeclined is returned when the specialty is unknown and --urgency was not given
var errUrgencyDeclined = errors.New("unknown speciality, rerun with --urgency to reserve in emergency medicine")

type reserveOptions struct {
	specialite  string
	responsable string
	qualite     string
	latitude    float64
	longitude   float64
	urgency     bool
}

func reserveCmd() *cobra.Command {
	opts := reserveOptions{}

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Submit one reservation to the backend, like the form does",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := bootstrap.SetupLogger(cfg.App)
			if err != nil {
				return err
			}
			log.SetOutput(cmd.ErrOrStderr())

			// one-shot run: no Redis, state lives for this process only
			core, err := bootstrap.NewCore(cfg, log, nil)
			if err != nil {
				return err
			}
			defer core.Guard.Stop()

			return runReserve(cmd, core.FormUsecase, opts)
		},
	}

	cmd.Flags().StringVar(&opts.specialite, "specialite", "", "speciality to reserve (unknown values offer emergency medicine)")
	cmd.Flags().StringVar(&opts.responsable, "responsable", entity.DefaultResponsable, "person in charge")
	cmd.Flags().StringVar(&opts.qualite, "qualite", entity.DefaultQualite, "title of the person in charge")
	cmd.Flags().Float64Var(&opts.latitude, "lat", entity.DefaultLatitude, "patient latitude")
	cmd.Flags().Float64Var(&opts.longitude, "lon", entity.DefaultLongitude, "patient longitude")
	cmd.Flags().BoolVar(&opts.urgency, "urgency", false, "accept the emergency medicine fallback for an unknown speciality")

	return cmd
}

func runReserve(cmd *cobra.Command, formUsecase usecase.ReservationFormUsecase, opts reserveOptions) error {
	ctx := cmd.Context()
	sessionID := uuid.New()
	out := cmd.OutOrStdout()

	details := &dto.UpdateDetailsRequest{
		Responsable: opts.responsable,
		Qualite:     opts.qualite,
		Latitude:    &opts.latitude,
		Longitude:   &opts.longitude,
	}
	if err := validateDetails(details); err != nil {
		return err
	}
	if _, err := formUsecase.UpdateDetails(ctx, sessionID, details); err != nil {
		return err
	}

	result, err := formUsecase.Submit(ctx, sessionID, &dto.SubmitFormRequest{Specialite: &opts.specialite})
	if err != nil {
		return err
	}

	if result.Outcome == dto.SubmitOutcomeUrgency {
		fmt.Fprintf(out, "La spécialité %q est inconnue, réservation possible en %s.\n", result.Form.Specialite, service.UrgencySpeciality)
		if !opts.urgency {
			return errUrgencyDeclined
		}
		result, err = formUsecase.ReserveInUrgency(ctx, sessionID)
		if err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result.Form.Reservation)
}

// validateDetails applies the same rules as the HTTP form
func validateDetails(details *dto.UpdateDetailsRequest) error {
	v := validator.NewValidator()
	if err := v.Validate(details); err != nil {
		fieldErrors := v.FormatValidationErrors(err)
		messages := make([]string, 0, len(fieldErrors))
		for _, msg := range fieldErrors {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		return fmt.Errorf("%w: %s", errInvalidDetails, strings.Join(messages, "; "))
	}
	return nil
}
