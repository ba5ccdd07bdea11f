package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/service"
	"github.com/vibast-solutions/ms-go-console/app/types"
	"github.com/vibast-solutions/ms-go-console/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
)

var rootKeyPermissions []string

var rootKeyCmd = &cobra.Command{
	Use:   "rootkey",
	Short: "Manage root keys",
}

var rootKeyCreateCmd = &cobra.Command{
	Use:   "create <workspace_id> <name>",
	Short: "Create a root key for a workspace",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err = configureLogging(cfg); err != nil {
			return err
		}

		db, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err = db.Ping(); err != nil {
			return err
		}

		result, err := createRootKey(context.Background(), db, cfg.RootKeys, args[0], args[1], rootKeyPermissions)
		if err != nil {
			return err
		}

		fmt.Printf("workspace_id: %s\n", args[0])
		fmt.Printf("key_id: %s\n", result.KeyID)
		fmt.Printf("root_key: %s\n", result.Key)
		return nil
	},
}

func init() {
	rootKeyCreateCmd.Flags().StringSliceVarP(&rootKeyPermissions, "permission", "p", nil, "permission to grant, repeatable (e.g. api.*.create_key)")
	_ = rootKeyCreateCmd.MarkFlagRequired("permission")
	rootKeyCmd.AddCommand(rootKeyCreateCmd)
	rootCmd.AddCommand(rootKeyCmd)
}

// createRootKey issues a root key on behalf of the operator, audited as a system actor.
func createRootKey(ctx context.Context, db *sql.DB, cfg config.RootKeyConfig, workspaceID, name string, permissions []string) (*dto.CreateKeyResult, error) {
	ws, err := repository.NewWorkspaceRepository(db).FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %q not found", workspaceID)
	}

	req := &types.CreateRootKeyRequest{Name: &name, Permissions: permissions}
	if err = req.Validate(); err != nil {
		return nil, err
	}

	caller := &auth.Caller{
		ActorType:   entity.ActorTypeSystem,
		ActorID:     "console-cli",
		ActorName:   "console rootkey create",
		OrgID:       ws.OrgID,
		WorkspaceID: ws.ID,
	}
	return service.NewRootKeyService(db, cfg).Create(ctx, caller, req)
}
