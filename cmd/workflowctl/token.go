package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "merenda/internal/jwt_token"
	"merenda/internal/platform/config"
	"merenda/pkg/domain"
	"merenda/pkg/mailaddr"
)

const tokenAudience = "merenda-api"

type tokenOptions struct {
	configPath      string
	userID          string
	name            string
	email           string
	role            string
	institutionID   string
	institutionKind string
	ttl             time.Duration
}

// newTokenCmd mints a bearer token signed with the server's configured key.
func newTokenCmd() *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for an actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, tokenAudience)
			token, err := svc.GenerateAccessToken(actor, opts.ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Server config file whose signing key to use")
	f.StringVar(&opts.userID, "user-id", "", "User id (random when empty)")
	f.StringVar(&opts.name, "name", "", "Display name (derived from --email when empty)")
	f.StringVar(&opts.email, "email", "", "Email address")
	f.StringVar(&opts.role, "role", "", "Role, e.g. school_director")
	f.StringVar(&opts.institutionID, "institution-id", "", "Institution the role is held at")
	f.StringVar(&opts.institutionKind, "institution-kind", "", "Institution kind, e.g. school")
	f.DurationVar(&opts.ttl, "ttl", 8*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (o *tokenOptions) actor() (domain.Actor, error) {
	if domain.Role(o.role) == domain.RoleSystem {
		return domain.Actor{}, fmt.Errorf("the system role cannot be issued a token")
	}
	actor := domain.Actor{
		UserID:          domain.UserID(uuid.New()),
		Name:            o.name,
		Email:           o.email,
		Role:            domain.Role(o.role),
		InstitutionKind: domain.InstitutionKind(o.institutionKind),
	}
	if actor.Name == "" && o.email != "" {
		actor.Name = mailaddr.DisplayName(o.email)
	}
	if o.userID != "" {
		id, err := domain.ParseUserID(o.userID)
		if err != nil {
			return domain.Actor{}, err
		}
		actor.UserID = id
	}
	if o.institutionID != "" {
		id, err := domain.ParseInstitutionID(o.institutionID)
		if err != nil {
			return domain.Actor{}, err
		}
		actor.InstitutionID = id
	}
	return actor, nil
}
