package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/folio"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <query> [key=value...]",
		Short: "Query content records",
		Long: `Get resolves a content query and prints the matching records.

The query is a content type slug, optionally followed by an id, a slug or
one of latest, first and random with a limit. Extra key=value arguments
are query parameters: order, limit, page, paging, offset, filter,
returnsingle, or a field, taxonomy or relation filter.

Example:
  folio get entries
  folio get entry/12
  folio get entries/latest/5
  folio get entries order=-title status=published
  folio get pages tags=news page=2`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			return a.withSite(func(site *folio.Site) error {
				res, err := site.Storage.Query(ctxOf(cmd), args[0], params)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				writeResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func parseParams(args []string) (types.Params, error) {
	m := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return types.Params{}, userErrorf("invalid parameter %q (want key=value)", arg)
		}
		m[strings.TrimSpace(k)] = v
	}
	params, err := types.ParamsFromMap(m)
	if err != nil {
		return types.Params{}, usageError{err: err}
	}
	return params, nil
}

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new <contenttype>",
		Short: "Print an empty record with default values",
		Long: "New prints a record of the content type carrying its declared\n" +
			"defaults. Edit it and pass it to save to create the record.",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(func(site *folio.Site) error {
				rec, err := site.Storage.EmptyRecord(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save [contenttype] [file]",
		Short: "Insert or update a record from JSON",
		Long: `Save reads a JSON record from file, or from stdin when file is
omitted or "-". A record without an id is inserted; one with an id is
updated. The content type argument overrides the record's contenttype.

Example:
  folio new entry > entry.json
  folio save entry entry.json
  echo '{"id": 3, "status": "published"}' | folio save entries`,
		Args: usageArgs(cobra.MaximumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var contentType, file string
			if len(args) > 0 {
				contentType = args[0]
			}
			if len(args) > 1 {
				file = args[1]
			}
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			var rec types.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return userErrorf("invalid record JSON: %v", err)
			}

			return a.withSite(func(site *folio.Site) error {
				id, err := site.Storage.Save(ctxOf(cmd), &rec, contentType)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), &rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s/%d\n", rec.ContentType, id)
				return nil
			})
		},
	}
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, usageError{err: err}
	}
	return data, nil
}

func newPatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patch <contenttype> <id> <field> <value>",
		Short: "Update a single value of a record",
		Long: `Patch writes one field or base column of an existing record without
touching the rest of it. The change time is refreshed.

Example:
  folio patch entries 12 status published
  folio patch entries 12 title "A better title"`,
		Args: usageArgs(cobra.ExactArgs(4)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return a.withSite(func(site *folio.Site) error {
				err := site.Storage.UpdateSingleValue(ctxOf(cmd), args[0], id, args[2], types.StringValue(args[3]))
				if err != nil {
					return err
				}
				if !a.flags.jsonMode {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s of %s/%d\n", args[2], args[0], id)
					return nil
				}
				rec, err := site.Storage.Get(ctxOf(cmd), args[0], id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <contenttype> <id>",
		Short: "Delete a record",
		Long: "Delete removes a record. Its taxonomy and relation rows are removed\n" +
			"too when cascade_delete is enabled in config.yaml.",
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return a.withSite(func(site *folio.Site) error {
				if err := site.Storage.Delete(ctxOf(cmd), args[0], id); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"contenttype": args[0], "id": id, "deleted": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%d\n", args[0], id)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{err: fmt.Errorf("%w: %q", types.ErrInvalidID, s)}
	}
	return id, nil
}
