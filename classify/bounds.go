package classify

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fairwaylab/go-coursevec"
)

// LoadSizeBounds reads per feature type size bounds from the given text
// file for calibration to a specific course region.  Each line contains a
// feature type label followed by the minimum and maximum plausible ground
// area, whitespace separated.  Blank lines and lines starting with # are
// skipped.
func LoadSizeBounds(file string) (map[coursevec.FeatureType]SizeRange, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	bounds := make(map[coursevec.FeatureType]SizeRange)

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {

		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)

		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected \"type min max\", got %q",
				lineNum, line)
		}

		ftype, err := coursevec.ParseFeatureType(fields[0])

		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		min, err := strconv.ParseFloat(fields[1], 64)

		if err != nil {
			return nil, fmt.Errorf("line %d: invalid minimum %q: %w",
				lineNum, fields[1], err)
		}

		max, err := strconv.ParseFloat(fields[2], 64)

		if err != nil {
			return nil, fmt.Errorf("line %d: invalid maximum %q: %w",
				lineNum, fields[2], err)
		}

		if min > max {
			return nil, fmt.Errorf("line %d: minimum %v exceeds maximum %v",
				lineNum, min, max)
		}

		bounds[ftype] = SizeRange{Min: min, Max: max}
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return bounds, nil
}

// LoadFeatureSet reads the set of feature type labels a course actually
// has, one label per line, for restricting classification on courses
// without water hazards or distinct tee boxes.  Blank lines and lines
// starting with # are skipped.  Pass the result as Params.FeatureSet.
func LoadFeatureSet(file string) (map[coursevec.FeatureType]bool, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	set := make(map[coursevec.FeatureType]bool)

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {

		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ftype, err := coursevec.ParseFeatureType(line)

		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		set[ftype] = true
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no feature type labels in %s", file)
	}

	return set, nil
}
