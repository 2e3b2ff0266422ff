package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/folio/internal/schema"
	"github.com/mesh-intelligence/folio/internal/storage"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// reportJSON is the JSON shape of a schema report.
type reportJSON struct {
	Changes     []string `json:"changes"`
	Diagnostics []string `json:"diagnostics"`
}

func writeReport(w io.Writer, jsonMode bool, report schema.Report, upToDate string) error {
	if jsonMode {
		return writeJSON(w, reportJSON{
			Changes:     nonNil(report.Structural().Lines()),
			Diagnostics: nonNil(report.Diagnostics().Lines()),
		})
	}
	if len(report) == 0 {
		fmt.Fprintln(w, upToDate)
		return nil
	}
	writeLines(w, report.Lines())
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// writeRecord prints one record as aligned name/value lines.
func writeRecord(w io.Writer, rec *types.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "contenttype\t%s\n", rec.ContentType)
	fmt.Fprintf(tw, "id\t%d\n", rec.ID)
	fmt.Fprintf(tw, "slug\t%s\n", rec.Slug)
	fmt.Fprintf(tw, "status\t%s\n", rec.Status)
	if rec.Username != "" {
		fmt.Fprintf(tw, "username\t%s\n", rec.Username)
	}
	if !rec.DateCreated.IsZero() {
		fmt.Fprintf(tw, "datecreated\t%s\n", rec.DateCreated.Format(types.TimestampLayout))
		fmt.Fprintf(tw, "datechanged\t%s\n", rec.DateChanged.Format(types.TimestampLayout))
	}
	for _, k := range sortedKeys(rec.Values) {
		fmt.Fprintf(tw, "%s\t%s\n", k, oneLine(rec.Values[k].Str()))
	}
	for _, k := range sortedKeys(rec.Taxonomy) {
		fmt.Fprintf(tw, "%s\t%s\n", k, strings.Join(rec.Taxonomy[k], ", "))
	}
	for _, k := range sortedKeys(rec.Relations) {
		ids := make([]string, 0, len(rec.Relations[k]))
		for _, id := range rec.Relations[k] {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, strings.Join(ids, ", "))
	}
	if rec.Group != nil {
		fmt.Fprintf(tw, "group\t%s\n", rec.Group.Name)
	}
	tw.Flush()
}

// writeResult prints a query result: a single record in full, a listing
// as one row per record followed by the pager.
func writeResult(w io.Writer, res *storage.Result) {
	if res.Single {
		if res.Record == nil {
			fmt.Fprintln(w, "No record found.")
			return
		}
		writeRecord(w, res.Record)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tSTATUS\tCHANGED")
	for _, rec := range res.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rec.ID, rec.Slug, rec.Status, rec.DateChanged.Format(types.TimestampLayout))
	}
	tw.Flush()
	if p := res.Pager; p != nil {
		fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n", p.ShowingFrom, p.ShowingTo, p.Count, p.Current, p.TotalPages)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 72 {
		s = s[:69] + "..."
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
