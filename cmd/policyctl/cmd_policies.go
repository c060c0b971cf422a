package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/policyready/policyctl/internal/models"
	"github.com/policyready/policyctl/internal/policyapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var policiesShowFiles bool

func newPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the service's policy corpus",
		Args:  cobra.NoArgs,
		RunE:  policiesCommandE,
	}

	cmd.Flags().BoolVar(&policiesShowFiles, "files", false, "Also list the documents inside each folder")

	return cmd
}

func policiesCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := policyapi.NewClient(cfg.Service.BaseURL)

	catalog, err := client.ListPolicies(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing policies: %w", err)
	}

	if !policiesShowFiles {
		printPolicyTable(os.Stdout, catalog)
		return nil
	}

	contents, err := fetchAllFolders(cmd, client, catalog.Folders)
	if err != nil {
		return err
	}
	printPolicyTree(os.Stdout, catalog, contents)
	return nil
}

// fetchAllFolders fans out one request per folder. Folder listings are
// independent of each other, so this is the only concurrent fetch in the
// tool; analysis itself stays strictly sequential.
func fetchAllFolders(cmd *cobra.Command, client *policyapi.Client, folders []models.PolicyFolder) (map[string]*models.FolderContents, error) {
	contents := make(map[string]*models.FolderContents, len(folders))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)

	for _, folder := range folders {
		g.Go(func() error {
			fc, err := client.FolderContents(ctx, folder.Name)
			if err != nil {
				return fmt.Errorf("listing folder %q: %w", folder.Name, err)
			}
			mu.Lock()
			contents[folder.Name] = fc
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}
