package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSON writes result as indented JSON to path, creating parent
// directories as needed.
func WriteJSON(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrintSummary prints the ranked results in a human-readable form
func PrintSummary(w io.Writer, result *Result, path string) {
	fmt.Fprintf(w, "[done] %d results saved to %s\n\n", len(result.Results), path)

	for i, r := range result.Results {
		converted := "-"
		if r.ReferenceAmountDisplay != nil {
			converted = *r.ReferenceAmountDisplay
		}
		fmt.Fprintf(w, "[%d] %s\n", i+1, r.Title)
		fmt.Fprintf(w, "    platform : %s\n", r.Platform.DisplayName())
		fmt.Fprintf(w, "    price    : %s  -> %s\n", r.PriceText, converted)
		fmt.Fprintf(w, "    rating   : %s\n", r.RatingText)
		fmt.Fprintf(w, "    url      : %s\n\n", r.URL)
	}

	if len(result.Results) == 0 {
		fmt.Fprintln(w, "[note] No results after filtering. Try widening the price range or removing the filter.")
	}
}
