package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DamianAcri/menulink-sub001/internal/auth"
	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

// RestaurantCreateOptions holds flags for restaurant create.
type RestaurantCreateOptions struct {
	*RootOptions
	Name     string
	Slug     string
	Email    string
	Phone    string
	Address  string
	Timezone string

	// Signer overrides API key hashing (for testing). Defaults to bcrypt.
	Signer auth.Signer
	// IDs overrides id generation (for testing). Defaults to UUIDv7.
	IDs domain.IDGenerator
}

type restaurantCreated struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	APIKey string `json:"api_key"`
}

// NewRestaurantCommand creates the restaurant command group.
func NewRestaurantCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restaurant",
		Short: "Manage restaurants",
	}
	cmd.AddCommand(newRestaurantCreateCommand(&RestaurantCreateOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newRestaurantListCommand(rootOpts))
	return cmd
}

func newRestaurantCreateCommand(opts *RestaurantCreateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a restaurant and print its API key",
		Long: `Create a restaurant with default settings. The owner API key is printed
once and only its hash is stored.

Example:
  menulink restaurant create --name "Casa Pepe" --slug casa-pepe --email owner@casapepe.es --timezone Europe/Madrid`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestaurantCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "restaurant name (required)")
	cmd.Flags().StringVar(&opts.Slug, "slug", "", "public URL slug (defaults to the name)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "owner email (required)")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Address, "address", "", "street address")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "UTC", "IANA time zone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRestaurantCreate(opts *RestaurantCreateOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	setupLogging(opts.RootOptions, cmd.ErrOrStderr())

	r, err := opts.restaurant()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "invalid restaurant", err)
	}

	cfg, err := loadConfig(opts.RootOptions, f)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, f)
	if err != nil {
		return err
	}
	defer st.Close()

	signer := opts.Signer
	if signer == nil {
		signer = auth.Bcrypt{}
	}
	key, hash, err := auth.NewAPIKey(signer)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to generate API key", err)
	}
	r.APIKeyHash = hash

	if err := st.CreateRestaurant(cmd.Context(), r, domain.DefaultSettings(r.ID)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return f.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("slug %q is taken", r.Slug), err)
		}
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to create restaurant", err)
	}

	out := restaurantCreated{ID: r.ID, Slug: r.Slug, APIKey: key}
	if f.JSON() {
		return f.Success(out)
	}
	fmt.Fprintf(f.Writer, "✓ Created %s (%s)\n", r.Name, r.ID)
	fmt.Fprintf(f.Writer, "  slug:    %s\n", r.Slug)
	fmt.Fprintf(f.Writer, "  api key: %s\n", key)
	fmt.Fprintln(f.Writer, "Store the API key now; it cannot be shown again.")
	return nil
}

// restaurant validates the flags and builds the row to insert.
func (o *RestaurantCreateOptions) restaurant() (domain.Restaurant, error) {
	name := domain.NormalizeName(o.Name)
	if name == "" {
		return domain.Restaurant{}, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	email := domain.NormalizeEmail(o.Email)
	if email == "" {
		return domain.Restaurant{}, &domain.ValidationError{Field: "email", Message: "is required"}
	}
	slug := o.Slug
	if slug == "" {
		slug = name
	}
	slug = domain.NormalizeSlug(slug)
	if slug == "" {
		return domain.Restaurant{}, &domain.ValidationError{Field: "slug", Message: "must contain letters or digits"}
	}
	tz := o.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return domain.Restaurant{}, &domain.ValidationError{Field: "timezone", Message: "unknown time zone"}
	}

	ids := o.IDs
	if ids == nil {
		ids = domain.UUIDv7Generator{}
	}
	now := domain.SystemClock{}.Now()
	return domain.Restaurant{
		ID:        ids.NewID(),
		Slug:      slug,
		Name:      name,
		Email:     email,
		Phone:     o.Phone,
		Address:   o.Address,
		Timezone:  tz,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func newRestaurantListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List restaurants",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			setupLogging(rootOpts, cmd.ErrOrStderr())

			cfg, err := loadConfig(rootOpts, f)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, f)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListRestaurants(cmd.Context())
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list restaurants", err)
			}
			if f.JSON() {
				return f.Success(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(f.Writer, "No restaurants.")
				return nil
			}
			tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tNAME\tEMAIL\tTIMEZONE")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Slug, r.Name, r.Email, r.Timezone)
			}
			return tw.Flush()
		},
	}
}
