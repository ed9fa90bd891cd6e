package main

import (
    "database/sql"
    "errors"
    "fmt"

    "github.com/rs/zerolog"
    "github.com/spf13/cobra"

    "github.com/iliyamo/car-marketplace/internal/apperr"
    "github.com/iliyamo/car-marketplace/internal/config"
    "github.com/iliyamo/car-marketplace/internal/database"
    "github.com/iliyamo/car-marketplace/internal/model"
    "github.com/iliyamo/car-marketplace/internal/repository"
    "github.com/iliyamo/car-marketplace/internal/service"
)

// opener connects to the database; tests swap it out.
type opener func() (*sql.DB, config.DBConfig, error)

func openDB() (*sql.DB, config.DBConfig, error) {
    cfg, err := config.LoadDB()
    if err != nil {
        return nil, cfg, err
    }
    db, err := database.Open(database.Options{User: cfg.User, Pass: cfg.Pass, Host: cfg.Host, Port: cfg.Port, Name: cfg.Name})
    return db, cfg, err
}

func newRootCmd(open opener, log zerolog.Logger) *cobra.Command {
    root := &cobra.Command{
        Use:           "dealerctl",
        Short:         "Maintenance commands for the car marketplace",
        SilenceUsage:  true,
        SilenceErrors: false,
    }
    root.AddCommand(
        newMigrateCmd(open, log),
        newCreateAdminCmd(open, log),
        newSettingsCmd(open, log),
        newSeedCmd(open, log),
    )
    return root
}

func newMigrateCmd(open opener, log zerolog.Logger) *cobra.Command {
    return &cobra.Command{
        Use:   "migrate",
        Short: "Apply pending schema migrations",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            db, _, err := open()
            if err != nil {
                return err
            }
            defer db.Close()
            v, err := database.Migrate(db)
            if err != nil {
                return err
            }
            log.Info().Uint("version", v).Msg("schema up to date")
            fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
            return nil
        },
    }
}

func newCreateAdminCmd(open opener, log zerolog.Logger) *cobra.Command {
    var name string
    cmd := &cobra.Command{
        Use:   "create-admin <email> <password>",
        Short: "Create an administrator account",
        Long:  "Create an administrator account.  An existing account with the same email is left untouched.",
        Args:  cobra.ExactArgs(2),
        RunE: func(cmd *cobra.Command, args []string) error {
            db, cfg, err := open()
            if err != nil {
                return err
            }
            defer db.Close()
            users := service.NewUserService(repository.NewUserRepo(db), cfg.BcryptCost, log)
            u, err := users.Create(cmd.Context(), model.CreateUserInput{
                Email:    args[0],
                Password: args[1],
                Name:     name,
                Role:     model.RoleAdmin,
            })
            if apperr.IsCode(err, apperr.CodeConflict) {
                fmt.Fprintln(cmd.OutOrStdout(), "admin user already exists")
                return nil
            }
            if err != nil {
                return err
            }
            fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%d email=%s\n", u.ID, u.Email)
            return nil
        },
    }
    cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
    return cmd
}

func newSettingsCmd(open opener, log zerolog.Logger) *cobra.Command {
    settings := &cobra.Command{
        Use:   "settings",
        Short: "Inspect or change store settings",
    }
    set := &cobra.Command{
        Use:   "set",
        Short: "Update the store contact block; only the given flags change",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            p := settingsPatch(cmd)
            if p == (model.SettingsPatch{}) {
                return errors.New("nothing to update: pass at least one flag")
            }
            db, _, err := open()
            if err != nil {
                return err
            }
            defer db.Close()
            s, err := service.NewSettingsService(repository.NewSettingsRepo(db)).Update(cmd.Context(), p)
            if err != nil {
                return err
            }
            log.Info().Msg("settings updated")
            printSettings(cmd, s)
            return nil
        },
    }
    f := set.Flags()
    f.String("phone", "", "contact phone")
    f.String("email", "", "contact email")
    f.String("address", "", "showroom address")
    f.String("work-hours", "", "opening hours")
    f.String("slogan", "", "storefront slogan")

    show := &cobra.Command{
        Use:   "show",
        Short: "Print the current settings",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, _ []string) error {
            db, _, err := open()
            if err != nil {
                return err
            }
            defer db.Close()
            s, err := service.NewSettingsService(repository.NewSettingsRepo(db)).Get(cmd.Context())
            if err != nil {
                return err
            }
            printSettings(cmd, s)
            return nil
        },
    }
    settings.AddCommand(set, show)
    return settings
}

// settingsPatch collects the flags the user actually passed.
func settingsPatch(cmd *cobra.Command) model.SettingsPatch {
    var p model.SettingsPatch
    pick := func(flag string) *string {
        if !cmd.Flags().Changed(flag) {
            return nil
        }
        v, _ := cmd.Flags().GetString(flag)
        return &v
    }
    p.Phone = pick("phone")
    p.Email = pick("email")
    p.Address = pick("address")
    p.WorkHours = pick("work-hours")
    p.Slogan = pick("slogan")
    return p
}

func printSettings(cmd *cobra.Command, s *model.Settings) {
    out := cmd.OutOrStdout()
    fmt.Fprintf(out, "phone:      %s\n", s.Phone)
    fmt.Fprintf(out, "email:      %s\n", s.Email)
    fmt.Fprintf(out, "address:    %s\n", s.Address)
    fmt.Fprintf(out, "work hours: %s\n", s.WorkHours)
    fmt.Fprintf(out, "slogan:     %s\n", s.Slogan)
}
