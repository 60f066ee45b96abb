package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [entity_value] [category]",
		Short: "Print the features of one category, or of --features across categories",
		Example: `  featurestore get user123 d0_unauth_features
  featurestore get acc-9 --entity-type account_id --features risk:score,profile:*`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runGet,
	}

	putCmd = &cobra.Command{
		Use:   "put [entity_value] [category]",
		Short: "Replace the features of one category",
		Example: `  featurestore put user123 d0_unauth_features --data '{"age": 30}'
  featurestore put user123 d0_unauth_features --file features.json --compute-id run-42`,
		Args: cobra.ExactArgs(2),
		RunE: runPut,
	}
)

func init() {
	for _, cmd := range []*cobra.Command{getCmd, putCmd} {
		cmd.Flags().String("entity-type", string(feature.Primary), "entity type (bright_uid or account_id)")
	}
	getCmd.Flags().StringSlice("features", nil, `comma separated "category:feature" or "category:*" tokens`)

	putCmd.Flags().String("data", "", "features as a JSON object")
	putCmd.Flags().String("file", "", `read the features JSON object from this file ("-" for stdin)`)
	putCmd.Flags().String("compute-id", "", "id of the compute run that produced the features")
	putCmd.MarkFlagsMutuallyExclusive("data", "file")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	entity, err := entityFromFlags(cmd, args[0])
	if err != nil {
		return err
	}
	tokens, _ := cmd.Flags().GetStringSlice("features")

	svc, _, closeNotifier, err := newService(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	if len(args) == 2 {
		if len(tokens) > 0 {
			return fmt.Errorf("give either a category or --features, not both")
		}
		rec, err := svc.GetSingleCategory(ctx, entity, args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	}

	sel, err := feature.ParseFeatureList(tokens)
	if err != nil {
		return err
	}
	res, err := svc.GetMultipleCategories(ctx, entity, sel)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"entity_value":                   entity.ID,
		"entity_type":                    entity.Kind,
		"items":                          res.Items,
		"unavailable_feature_categories": res.Unavailable,
	})
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	entity, err := entityFromFlags(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := dataFromFlags(cmd)
	if err != nil {
		return err
	}
	var computeID *string
	if id, _ := cmd.Flags().GetString("compute-id"); id != "" {
		computeID = &id
	}

	svc, _, closeNotifier, err := newService(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	res, err := svc.UpsertCategory(ctx, entity, args[1], data, computeID)
	if err != nil {
		return err
	}
	if err := svc.Close(ctx); err != nil {
		logger.Warn("pending notifications not delivered", "error", err)
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func entityFromFlags(cmd *cobra.Command, value string) (feature.EntityRef, error) {
	raw, _ := cmd.Flags().GetString("entity-type")
	kind, err := feature.ParseEntityKind(raw)
	if err != nil {
		return feature.EntityRef{}, err
	}
	return feature.NewEntityRef(kind, value)
}

// dataFromFlags reads the features object given by --data or --file.
func dataFromFlags(cmd *cobra.Command) (feature.Data, error) {
	raw, _ := cmd.Flags().GetString("data")
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		var (
			b   []byte
			err error
		)
		if path == "-" {
			b, err = io.ReadAll(cmd.InOrStdin())
		} else {
			b, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read features: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("features are required, use --data or --file")
	}

	var data feature.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parse features: %w", err)
	}
	return data, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
