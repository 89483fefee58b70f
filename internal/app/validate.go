package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
	payloadschema "github.com/tommyzki/tommyzki-translate/internal/translation/schema"
)

type validateResult struct {
	Scanned int
	Valid   int
	Invalid int
}

// runValidate checks recorded translation results, such as saved
// /api/translate responses, against the result schema and language set.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	dir := fs.String("dir", "testdata/translations", "Directory containing .json translation results")
	recursive := fs.Bool("recursive", true, "Recursively scan subdirectories")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	root := strings.TrimSpace(*dir)
	files, err := collectJSONFiles(root, *recursive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation setup failed: %v\n", err)
		return 1
	}

	result := validateResult{}
	for _, path := range files {
		result.Scanned++
		if err := validateResultFile(path); err != nil {
			result.Invalid++
			fmt.Fprintf(os.Stderr, "INVALID %s: %v\n", path, err)
			continue
		}
		result.Valid++
	}

	fmt.Printf(
		"validate scanned=%d valid=%d invalid=%d dir=%s recursive=%t\n",
		result.Scanned,
		result.Valid,
		result.Invalid,
		root,
		*recursive,
	)

	if result.Scanned == 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: no .json files found under %s\n", root)
		return 1
	}
	if result.Invalid > 0 {
		return 1
	}
	return 0
}

func validateResultFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("malformed JSON")
	}

	payload, err := payloadschema.ValidateTranslationPayload(json.RawMessage(raw))
	if err != nil {
		return err
	}
	code, ok := language.Parse(payload.Source.Code)
	if !ok {
		return fmt.Errorf("%w: %q", translation.ErrUnsupportedSource, payload.Source.Code)
	}

	result := translation.Result{
		Source: translation.Source{Code: code, Name: payload.Source.Name},
		EN:     payload.EN,
		ID:     payload.ID,
		JA:     translation.Japanese{Kanji: payload.JA.Kanji, Romaji: payload.JA.Romaji},
	}
	return result.Validate()
}

func collectJSONFiles(root string, recursive bool) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("directory path is empty")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		hidden := strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if path == root {
				return nil
			}
			if hidden || !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
