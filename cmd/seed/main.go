package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"poketeams/internal/auth"
	"poketeams/internal/config"
	"poketeams/internal/db"
	apperrors "poketeams/internal/errors"
	"poketeams/internal/logging"
	"poketeams/internal/model"
	"poketeams/internal/repository"
	"poketeams/internal/service"
)

const pokeAPIURL = "https://pokeapi.co/api/v2/pokemon"

var defaultRoster = []string{"pikachu", "charizard", "bulbasaur", "squirtle", "snorlax", "lapras"}

type seedOptions struct {
	username string
	email    string
	password string
	teamName string
	pokeAPI  bool
	apiURL   string
}

var opts seedOptions

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo trainer with a starter team",
	Long: `Seed creates a demo user and gives it one starter team. The roster
is taken from PokeAPI when --pokeapi is set, otherwise a fixed list is used.
Running it again reuses the existing user and adds another team.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
		return seed(cmd.Context(), cfg, log, opts)
	},
}

func init() {
	rootCmd.Flags().StringVar(&opts.username, "username", "ash", "Demo trainer username")
	rootCmd.Flags().StringVar(&opts.email, "email", "ash@pallet.town", "Demo trainer email")
	rootCmd.Flags().StringVar(&opts.password, "password", "pikachu", "Demo trainer password")
	rootCmd.Flags().StringVar(&opts.teamName, "team", "Starter Team", "Name of the seeded team")
	rootCmd.Flags().BoolVar(&opts.pokeAPI, "pokeapi", false, "Fetch the roster from PokeAPI")
	rootCmd.Flags().StringVar(&opts.apiURL, "pokeapi-url", pokeAPIURL, "PokeAPI pokemon list endpoint")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, log logging.Logger, o seedOptions) error {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB, false); err != nil {
		return err
	}
	log.Info(ctx, "database ready")

	userRepo := repository.NewUserRepository(gormDB)
	teamRepo := repository.NewTeamRepository(gormDB)

	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params, cfg.HashConcurrency)
	codec, err := auth.NewTokenCodec(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(userRepo, hasher, codec, log)
	teamService := service.NewTeamService(teamRepo, nil)

	user, err := ensureUser(ctx, authService, userRepo, o)
	if err != nil {
		return err
	}

	roster := defaultRoster
	if o.pokeAPI {
		client := &http.Client{Timeout: 10 * time.Second}
		fetched, err := fetchRoster(ctx, client, o.apiURL, model.MaxTeamSize)
		if err != nil {
			log.Warn(ctx, "pokeapi unavailable, using default roster", "error", err.Error())
		} else {
			roster = fetched
		}
	}

	team, err := teamService.CreateTeam(ctx, user.ID, o.teamName, roster)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}

	log.Info(ctx, "seed completed",
		"username", user.Username,
		"team_id", team.ID,
		"pokemon", strings.Join(roster, ","))
	return nil
}

// ensureUser registers the demo trainer, or loads it when it already exists.
func ensureUser(ctx context.Context, authService service.AuthService, repo repository.UserRepository, o seedOptions) (*model.User, error) {
	_, err := authService.Register(ctx, o.username, o.email, o.password)
	if err != nil && !errors.Is(err, apperrors.ErrConflict) {
		return nil, fmt.Errorf("register demo user: %w", err)
	}

	user, err := repo.FindByUsername(ctx, o.username)
	if err != nil {
		return nil, fmt.Errorf("load demo user: %w", err)
	}
	return user, nil
}

type pokemonList struct {
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// fetchRoster reads the first limit pokemon names from a PokeAPI list endpoint.
func fetchRoster(ctx context.Context, client *http.Client, url string, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?limit=%d", url, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var list pokemonList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	names := make([]string, 0, limit)
	for _, r := range list.Results {
		if r.Name == "" {
			continue
		}
		names = append(names, r.Name)
		if len(names) == limit {
			break
		}
	}
	if len(names) == 0 {
		return nil, errors.New("API returned no pokemon")
	}
	return names, nil
}
