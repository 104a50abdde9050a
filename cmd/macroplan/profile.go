package macroplan

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/model"
	"github.com/saadjs/macroplan/internal/service"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the body profile used for analytics",
}

var (
	profileName     string
	profileHeight   float64
	profileDOB      string
	profileSex      string
	profileActivity int
	profileRole     string
	profileJSON     bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create the profile or update the given fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.ResolveProfileID(sqldb, cfg.ProfileID)
			if err != nil && !(errors.Is(err, service.ErrProfileNotFound) && cfg.ProfileID == 0) {
				return err
			}
			in := service.ProfileInput{ActivityLevel: 1}
			if id > 0 {
				current, err := service.GetProfile(sqldb, id)
				if err != nil {
					return err
				}
				in = profileInputFrom(*current)
			}
			if cmd.Flags().Changed("name") {
				in.Name = profileName
			}
			if cmd.Flags().Changed("height") {
				in.HeightCm = &profileHeight
			}
			if cmd.Flags().Changed("dob") {
				dob, err := parseDate("dob", profileDOB)
				if err != nil {
					return err
				}
				in.DateOfBirth = &dob
			}
			if cmd.Flags().Changed("sex") {
				in.Sex = profileSex
			}
			if cmd.Flags().Changed("activity") {
				in.ActivityLevel = profileActivity
			}
			if cmd.Flags().Changed("role") {
				in.Role = profileRole
			}
			saved, err := service.SaveProfile(sqldb, id, in)
			if err != nil {
				return err
			}
			if id == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Created profile %d\n", saved)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %d\n", saved)
			}
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, id int64) error {
			p, err := service.GetProfile(sqldb, id)
			if err != nil {
				return err
			}
			if profileJSON {
				return writeJSON(cmd.OutOrStdout(), "profile", p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %d\n", p.ID)
			fmt.Fprintf(out, "Name: %s\n", p.Name)
			fmt.Fprintf(out, "Height: %s cm\n", fmtOpt(p.HeightCm, 1))
			dob := "-"
			if p.DateOfBirth != nil {
				dob = p.DateOfBirth.Format("2006-01-02")
			}
			fmt.Fprintf(out, "Date of birth: %s\n", dob)
			fmt.Fprintf(out, "Sex: %s\n", p.Sex)
			fmt.Fprintf(out, "Activity level: %d\n", p.ActivityLevel)
			fmt.Fprintf(out, "Role: %s\n", p.Role)
			return nil
		})
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListProfiles(sqldb)
			if err != nil {
				return err
			}
			if profileJSON {
				return writeJSON(cmd.OutOrStdout(), "profiles", items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tSEX\tHEIGHT\tACTIVITY\tROLE")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Sex, fmtOpt(p.HeightCm, 1), p.ActivityLevel, p.Role)
			}
			return nil
		})
	},
}

func profileInputFrom(p model.Profile) service.ProfileInput {
	return service.ProfileInput{
		Name:          p.Name,
		HeightCm:      p.HeightCm,
		DateOfBirth:   p.DateOfBirth,
		Sex:           p.Sex,
		ActivityLevel: p.ActivityLevel,
		Role:          p.Role,
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd, profileListCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm")
	profileSetCmd.Flags().StringVar(&profileDOB, "dob", "", "Date of birth YYYY-MM-DD")
	profileSetCmd.Flags().StringVar(&profileSex, "sex", "", "Male or Female")
	profileSetCmd.Flags().IntVar(&profileActivity, "activity", 1, "Activity level 0 (sedentary) to 4 (very active)")
	profileSetCmd.Flags().StringVar(&profileRole, "role", "", "Profile role")

	for _, c := range []*cobra.Command{profileShowCmd, profileListCmd} {
		c.Flags().BoolVar(&profileJSON, "json", false, "Output JSON")
	}
}
