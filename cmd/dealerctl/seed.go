package main

import (
    "context"
    "database/sql"
    _ "embed"
    "encoding/json"
    "errors"
    "fmt"
    "strings"

    "github.com/rs/zerolog"
    "github.com/spf13/cobra"

    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/repository"
    "github.com/iliyamo/car-marketplace/internal/utils"
)

//go:embed seed_cars.json
var demoCarsJSON []byte

// demoOwnerPassword is shared by every seeded owner account.
const demoOwnerPassword = "owner123"

var demoOwners = []string{
    "owner1@car-shop.ru",
    "owner2@car-shop.ru",
    "owner3@car-shop.ru",
    "owner4@car-shop.ru",
    "owner5@car-shop.ru",
}

type seedResult struct {
    Owners int
    Cars   int
}

func newSeedCmd(open opener, log zerolog.Logger) *cobra.Command {
    var wipe bool
    cmd := &cobra.Command{
        Use:   "seed",
        Short: "Load default settings, demo owners and approved demo cars",
        Long: "Load default settings, demo owners and approved demo cars.  With --clear, " +
            "all cars, owner accounts and settings are removed first; admin accounts and leads are kept.",
        Args: cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            db, cfg, err := open()
            if err != nil {
                return err
            }
            defer db.Close()
            res, err := seed(cmd.Context(), db, cfg.BcryptCost, wipe, log)
            if err != nil {
                return err
            }
            fmt.Fprintf(cmd.OutOrStdout(), "seeded: owners=%d cars=%d\n", res.Owners, res.Cars)
            return nil
        },
    }
    cmd.Flags().BoolVar(&wipe, "clear", false, "remove cars, owners and settings before seeding")
    return cmd
}

func seed(ctx context.Context, db *sql.DB, cost int, wipe bool, log zerolog.Logger) (seedResult, error) {
    var res seedResult
    users := repository.NewUserRepo(db)
    cars := repository.NewCarRepo(db)
    settings := repository.NewSettingsRepo(db)

    var demo []model.Car
    if err := json.Unmarshal(demoCarsJSON, &demo); err != nil {
        return res, fmt.Errorf("decode demo cars: %w", err)
    }

    if wipe {
        n, err := cars.DeleteAll(ctx)
        if err != nil {
            return res, fmt.Errorf("clear cars: %w", err)
        }
        m, err := users.DeleteByRole(ctx, model.RoleOwner)
        if err != nil {
            return res, fmt.Errorf("clear owners: %w", err)
        }
        if err := settings.Reset(ctx); err != nil {
            return res, fmt.Errorf("clear settings: %w", err)
        }
        log.Info().Int64("cars", n).Int64("owners", m).Msg("existing data cleared")
    }

    if err := settings.Ensure(ctx); err != nil {
        return res, fmt.Errorf("settings: %w", err)
    }

    owners := make([]*model.User, 0, len(demoOwners))
    for i, email := range demoOwners {
        u, err := users.GetByEmail(ctx, email)
        if errors.Is(err, repository.ErrNotFound) {
            u, err = createDemoOwner(ctx, users, email, i, cost)
            if err == nil {
                log.Info().Str("email", email).Msg("owner created")
            }
        }
        if err != nil {
            return res, fmt.Errorf("owner %s: %w", email, err)
        }
        owners = append(owners, u)
    }
    res.Owners = len(owners)

    for i := range demo {
        c := demo[i]
        owner := owners[i%len(owners)]
        c.SnapshotOwner(owner)
        c.CreatedBy = owner.ID
        c.Status = model.CarAvailable
        c.ModerationStatus = model.ModerationApproved
        if c.Currency == "" {
            c.Currency = "RUB"
        }
        if err := cars.Create(ctx, &c); err != nil {
            return res, fmt.Errorf("car %q: %w", c.Title, err)
        }
        res.Cars++
    }
    log.Info().Int("owners", res.Owners).Int("cars", res.Cars).Msg("database seeded")
    return res, nil
}

func createDemoOwner(ctx context.Context, users *repository.UserRepo, email string, i, cost int) (*model.User, error) {
    hash, err := utils.HashPassword(demoOwnerPassword, cost)
    if err != nil {
        return nil, err
    }
    u := &model.User{
        Email:        email,
        PasswordHash: hash,
        Role:         model.RoleOwner,
        Name:         "Владелец " + strings.SplitN(email, "@", 2)[0],
        Phone:        fmt.Sprintf("+7 900 000 00 %02d", i+1),
        IsActive:     true,
    }
    if err := users.Create(ctx, u); err != nil {
        return nil, err
    }
    return u, nil
}
