package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/specialists/internal/adapters/fs"
	"github.com/bft-labs/specialists/internal/cliconfig"
	"github.com/bft-labs/specialists/internal/domain"
)

func catalogCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the categories and subtypes workers can be spawned for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, *cfgPath, cfg); err != nil {
				return err
			}
			catalog := domain.DefaultCatalog()
			if cfg.CatalogPath != "" {
				c, err := fs.LoadCatalog(cfg.CatalogPath)
				if err != nil {
					return err
				}
				catalog = c
			}
			out, err := fs.MarshalCatalog(catalog)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// knowledgeEntry is one log as printed by the knowledge command.
type knowledgeEntry struct {
	Category  string                     `json:"category" yaml:"category"`
	Subtype   string                     `json:"subtype" yaml:"subtype"`
	Snapshots []domain.KnowledgeSnapshot `json:"snapshots" yaml:"snapshots"`
}

func knowledgeCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	var category, subtype, format string

	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Print persisted knowledge snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, *cfgPath, cfg); err != nil {
				return err
			}
			logs, err := fs.NewKnowledgeFileRepository(cfg.KnowledgeDir).Load(context.Background())
			if err != nil {
				return err
			}
			return printKnowledge(cmd.OutOrStdout(), filterKnowledge(logs, category, subtype), format)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&subtype, "subtype", "", "only this subtype")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func filterKnowledge(logs map[domain.KnowledgeKey][]domain.KnowledgeSnapshot, category, subtype string) []knowledgeEntry {
	out := make([]knowledgeEntry, 0, len(logs))
	for k, snaps := range logs {
		if category != "" && k.Category != category {
			continue
		}
		if subtype != "" && k.Subtype != subtype {
			continue
		}
		out = append(out, knowledgeEntry{Category: k.Category, Subtype: k.Subtype, Snapshots: snaps})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

func printKnowledge(w io.Writer, entries []knowledgeEntry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
