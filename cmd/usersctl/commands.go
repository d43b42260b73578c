package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/application/usecase/auth"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/infra/dependency"
)

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score <password>",
		Short: "Print the strength score of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := args[0]
			policy := dependency.NewPasswordPolicy(a.cfg)

			cmd.Printf("score: %d/%d\n", valueobject.ScorePassword(password), valueobject.MaxPasswordStrength)
			if policy.Accepts(password) {
				cmd.Println("accepted")
			} else {
				cmd.Printf("rejected: needs at least %d characters and a score of %d\n", policy.MinLength, policy.MinStrength)
			}
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name = valueobject.NormalizeField(name)
			email = valueobject.NormalizeField(email)
			if err := valueobject.ValidateName(name); err != nil {
				return rejected(err.Error())
			}
			if err := valueobject.ValidateEmail(email); err != nil {
				return rejected(err.Error())
			}

			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			out, err := a.accounts.Register.Execute(cmd.Context(), account.RegisterUserInput{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			if out.Rejection != nil {
				return rejected(out.Rejection.Message)
			}

			cmd.Printf("created %s <%s> (%s)\n", out.User.Name, out.User.Email, out.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			out, err := a.accounts.List.Execute(cmd.Context())
			if err != nil {
				return err
			}
			if len(out.Users) == 0 {
				cmd.Println("no users")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEMAIL\tCREATED")
			for _, u := range out.Users {
				fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an account by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			out, err := a.accounts.Delete.Execute(cmd.Context(), account.DeleteUserInput{Name: args[0]})
			if err != nil {
				return err
			}
			if out.Rejection != nil {
				return rejected(out.Rejection.Message)
			}

			cmd.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newAuthenticateCmd(a *app) *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Check a name and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			out, err := a.accounts.Authenticate.Execute(cmd.Context(), auth.AuthenticateUserInput{
				Name:     name,
				Password: password,
			})
			if err != nil {
				return err
			}

			cmd.Println(out.Outcome)
			if out.Rejection != nil {
				return rejected(out.Rejection.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRolesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the account roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			roles, err := a.accounts.RoleRepo.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range roles {
				cmd.Printf("%d\t%s\n", r.ID, r.Label)
			}
			return nil
		},
	}
}

func newEmailsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "emails <address>",
		Short: "Show the queued emails for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			jobs, err := a.accounts.EmailQueue.GetByRecipient(cmd.Context(), valueobject.NormalizeField(args[0]))
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				cmd.Println("no emails")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TEMPLATE\tSTATUS\tATTEMPTS\tCREATED")
			for _, job := range jobs {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n",
					job.TemplateType, job.Status, job.Attempts, job.MaxAttempts, job.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
