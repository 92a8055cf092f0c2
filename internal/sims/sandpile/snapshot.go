package sandpile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sandpile/internal/core"
)

const (
	snapshotTag     = "sandpile"
	snapshotVersion = "v1"

	dropsTag    = "drops"
	huesTag     = "hues"
	checksumTag = "Checksum:"

	runUntouched = "f"
	runTouched   = "t"

	headerFields = 9
)

// DefaultSnapshotName is the file loaded when no path is given.
const DefaultSnapshotName = "sandpile.pile"

var (
	// ErrMalformed marks snapshot content that cannot be decoded.
	ErrMalformed = errors.New("malformed snapshot")
	// ErrUnstable is returned when encoding a lattice that still holds a
	// cell at or above the critical threshold.
	ErrUnstable = errors.New("lattice not stabilized")
)

// FormatError reports the snapshot line that failed to decode.
type FormatError struct {
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("snapshot line %d: %v", e.Line, e.Err)
}

func (e *FormatError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

func malformed(line int, format string, a ...any) error {
	return &FormatError{Line: line, Err: fmt.Errorf(format, a...)}
}

// LoadReport describes the integrity checks of a decoded snapshot. None of
// them stop a load.
type LoadReport struct {
	// Decoded is the number of cells expanded from the run lines.
	Decoded int
	// Declared is the number of recorded cells stated by the checksum line.
	Declared int
	// Stated is the lattice size stated by the checksum line.
	Stated int
	// Expected is the lattice size from the header.
	Expected int
	// HasChecksum is false when the checksum line was missing.
	HasChecksum bool
	// Imbalance is total - (grains on lattice + lost); zero for a
	// consistent snapshot.
	Imbalance int
}

// Mismatch reports whether the checksum did not confirm the cell data.
func (r LoadReport) Mismatch() bool {
	return !r.HasChecksum || r.Stated != r.Expected || r.Declared != r.Stated || r.Decoded != r.Declared
}

// SnapshotName returns the file name Curate uses for the current model.
func (m *Model) SnapshotName() string {
	return fmt.Sprintf("sandpile_model_%08d.pile", m.totalGrains)
}

// Curate writes a snapshot named after the grain count into dir and returns
// its path.
func (m *Model) Curate(dir string) (string, error) {
	path := filepath.Join(dir, m.SnapshotName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	return path, nil
}

// Uncurate replaces the model with the snapshot stored at path. On error the
// model is left untouched.
func (m *Model) Uncurate(path string) (LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return m.Load(f)
}

// Load replaces the model with a snapshot read from r. Width, height and
// interval come from the snapshot; margin and grain limit are kept.
func (m *Model) Load(r io.Reader) (LoadReport, error) {
	loaded, report, err := Decode(r, m.cfg)
	if err != nil {
		return report, err
	}
	*m = *loaded
	return report, nil
}

// Encode writes the model in the line-oriented snapshot format: a header,
// the drop cells, the palette, run-length encoded cells and a checksum.
func (m *Model) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	l := m.lattice

	fmt.Fprintf(bw, "%s,%s,%d,%d,%d,%d,%d,%d,%d\n",
		snapshotTag, snapshotVersion, l.W, l.H,
		m.totalGrains, m.lostGrains, m.interval, m.sources.Len(), m.avalanche)

	bw.WriteString(dropsTag)
	for _, d := range m.sources.Drops() {
		bw.WriteByte(',')
		bw.WriteString(strconv.Itoa(d))
	}
	bw.WriteByte('\n')

	bw.WriteString(huesTag)
	for _, c := range m.palette {
		fmt.Fprintf(bw, ",%d,%d,%d,%d", c.R, c.G, c.B, c.A)
	}
	bw.WriteByte('\n')

	cells := l.Cells()
	encoded := 0
	for start := 0; start < len(cells); {
		touched := cells[start].Touched
		end := start + 1
		for end < len(cells) && cells[end].Touched == touched {
			end++
		}
		count := end - start
		if !touched {
			fmt.Fprintf(bw, "%d,%s\n", count, runUntouched)
		} else {
			fmt.Fprintf(bw, "%d,%s,", count, runTouched)
			for i := start; i < end; i++ {
				g := cells[i].Grains
				if g >= Critical {
					return fmt.Errorf("cell %d holds %d grains: %w", i, g, ErrUnstable)
				}
				bw.WriteByte('0' + g)
			}
			bw.WriteByte('\n')
		}
		encoded += count
		start = end
	}

	fmt.Fprintf(bw, "%s %d of %d cells recorded\n", checksumTag, encoded, len(cells))
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Decode builds a new model from a snapshot. cfg supplies the settings the
// format does not carry. Cells not covered by the run lines stay untouched;
// that case is reported through LoadReport rather than as an error.
func Decode(r io.Reader, cfg Config) (*Model, LoadReport, error) {
	var report LoadReport
	lr := &lineReader{r: bufio.NewReader(r)}

	line, ok, err := lr.next()
	if err != nil {
		return nil, report, err
	}
	if !ok {
		return nil, report, malformed(lr.n+1, "missing header")
	}
	m, err := decodeHeader(line, lr.n, cfg)
	if err != nil {
		return nil, report, err
	}
	report.Expected = m.lattice.Len()

	if line, ok, err = lr.next(); err != nil {
		return nil, report, err
	}
	if !ok {
		return nil, report, malformed(lr.n+1, "missing drop cells")
	}
	if err := m.decodeDrops(line, lr.n); err != nil {
		return nil, report, err
	}

	if line, ok, err = lr.next(); err != nil {
		return nil, report, err
	}
	if !ok {
		return nil, report, malformed(lr.n+1, "missing palette")
	}
	if err := m.decodeHues(line, lr.n); err != nil {
		return nil, report, err
	}

	cells := m.lattice.Cells()
	cursor := 0
	for {
		line, ok, err = lr.next()
		if err != nil {
			return nil, report, err
		}
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, checksumTag) {
			declared, stated, err := parseChecksum(line, lr.n)
			if err != nil {
				return nil, report, err
			}
			report.HasChecksum = true
			report.Declared = declared
			report.Stated = stated
			break
		}
		n, err := decodeRun(line, lr.n, cells[cursor:])
		if err != nil {
			return nil, report, err
		}
		cursor += n
	}
	report.Decoded = cursor
	report.Imbalance = m.totalGrains - m.GrainsOnLattice() - m.lostGrains
	return m, report, nil
}

func decodeHeader(line string, n int, cfg Config) (*Model, error) {
	pieces := strings.Split(line, ",")
	if len(pieces) != headerFields {
		return nil, malformed(n, "header has %d fields, want %d", len(pieces), headerFields)
	}
	if pieces[0] != snapshotTag {
		return nil, malformed(n, "unknown tag %q", pieces[0])
	}
	if pieces[1] != snapshotVersion {
		return nil, malformed(n, "unsupported version %q", pieces[1])
	}
	vals := make([]int, 0, headerFields-2)
	for _, p := range pieces[2:] {
		v, err := parseCount(p)
		if err != nil {
			return nil, &FormatError{Line: n, Err: err}
		}
		vals = append(vals, v)
	}
	width, height, total, lost, interval, active, avalanche :=
		vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6]
	if interval < 1 || interval > MaxInterval {
		return nil, malformed(n, "interval %d outside [1, %d]", interval, MaxInterval)
	}
	if active > MaxDrops {
		return nil, malformed(n, "%d active sources exceed %d", active, MaxDrops)
	}

	if _, ok := core.CellCount(width, height); !ok {
		return nil, malformed(n, "lattice %dx%d too large or empty", width, height)
	}

	cfg.Width = width
	cfg.Height = height
	cfg.Interval = interval
	m, err := NewWithConfig(cfg)
	if err != nil {
		return nil, &FormatError{Line: n, Err: err}
	}
	m.totalGrains = total
	m.lostGrains = lost
	m.avalanche = avalanche
	m.sources.active = active
	return m, nil
}

func (m *Model) decodeDrops(line string, n int) error {
	pieces := strings.Split(line, ",")
	if len(pieces) != MaxDrops+1 || pieces[0] != dropsTag {
		return malformed(n, "drop line needs %q and %d indices", dropsTag, MaxDrops)
	}
	for i := 0; i < MaxDrops; i++ {
		v, err := parseCount(pieces[i+1])
		if err != nil {
			return &FormatError{Line: n, Err: err}
		}
		if i >= m.sources.active {
			continue
		}
		if !m.lattice.ValidIndex(v) {
			return malformed(n, "drop cell %d outside lattice", v)
		}
		m.sources.drops[i] = v
	}
	return nil
}

func (m *Model) decodeHues(line string, n int) error {
	pieces := strings.Split(line, ",")
	want := 1 + 4*len(m.palette)
	if len(pieces) != want || pieces[0] != huesTag {
		return malformed(n, "palette line needs %q and %d channels", huesTag, want-1)
	}
	var ch [4]uint8
	for i := range m.palette {
		for j := range ch {
			v, err := strconv.ParseUint(pieces[1+4*i+j], 10, 8)
			if err != nil {
				return &FormatError{Line: n, Err: err}
			}
			ch[j] = uint8(v)
		}
		m.palette[i].R, m.palette[i].G, m.palette[i].B, m.palette[i].A = ch[0], ch[1], ch[2], ch[3]
	}
	return nil
}

// decodeRun expands one run line into dst and returns the number of cells.
func decodeRun(line string, n int, dst []core.Cell) (int, error) {
	pieces := strings.Split(line, ",")
	if len(pieces) < 2 {
		return 0, malformed(n, "run line %q", line)
	}
	count, err := parseCount(pieces[0])
	if err != nil {
		return 0, &FormatError{Line: n, Err: err}
	}
	if count > len(dst) {
		return 0, malformed(n, "run of %d cells overflows lattice (%d left)", count, len(dst))
	}
	switch pieces[1] {
	case runUntouched:
		if len(pieces) != 2 {
			return 0, malformed(n, "untouched run has extra fields")
		}
		for i := 0; i < count; i++ {
			dst[i] = core.Cell{}
		}
	case runTouched:
		if len(pieces) != 3 {
			return 0, malformed(n, "touched run needs grain digits")
		}
		digits := pieces[2]
		if len(digits) != count {
			return 0, malformed(n, "touched run declares %d cells but has %d digits", count, len(digits))
		}
		for i := 0; i < count; i++ {
			g := digits[i] - '0'
			if digits[i] < '0' || g >= Critical {
				return 0, malformed(n, "invalid grain digit %q", digits[i])
			}
			dst[i] = core.Cell{Grains: g, Touched: true}
		}
	default:
		return 0, malformed(n, "unknown run kind %q", pieces[1])
	}
	return count, nil
}

func parseChecksum(line string, n int) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || fields[2] != "of" {
		return 0, 0, malformed(n, "checksum line %q", line)
	}
	declared, err := parseCount(fields[1])
	if err != nil {
		return 0, 0, &FormatError{Line: n, Err: err}
	}
	expected, err := parseCount(fields[3])
	if err != nil {
		return 0, 0, &FormatError{Line: n, Err: err}
	}
	return declared, expected, nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

// lineReader yields lines without length limits; touched runs on a large
// lattice can span millions of characters.
type lineReader struct {
	r *bufio.Reader
	n int
}

func (lr *lineReader) next() (string, bool, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("read snapshot: %w", err)
	}
	if err != nil && line == "" {
		return "", false, nil
	}
	lr.n++
	return strings.TrimRight(line, "\r\n"), true, nil
}
