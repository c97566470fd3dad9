package infrastructure

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

// OutcarReader extracts ion count, lattice vectors and the
// (energy, positions, forces) snapshots from a VASP OUTCAR file.
type OutcarReader struct {
	logger *zap.Logger
}

func NewOutcarReader(logger *zap.Logger) *OutcarReader {
	return &OutcarReader{logger: logger}
}

// ReadSimulation parses filename and keeps every stride-th snapshot. The
// first snapshot is always kept, so at least one snapshot is returned
// whenever the file holds any. Positions are converted to direct
// (fractional) coordinates by the lattice constant; forces stay cartesian.
// A block whose force table does not match its position table is an
// ErrInvalidFileFormat: the core never sees a mismatched pair.
func (r *OutcarReader) ReadSimulation(filename string, stride int) (*domain.Simulation, error) {
	if stride < 1 {
		stride = 1
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sim := &domain.Simulation{}
	scanner := bufio.NewScanner(file)

	var pending *domain.Snapshot
	haveLattice := false

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.Contains(line, "ions per type"):
			if sim.IonCount != 0 {
				continue
			}
			n, err := parseIonCounts(line)
			if err != nil {
				return nil, err
			}
			sim.IonCount = n

		case strings.Contains(line, "direct lattice vectors"):
			if haveLattice {
				continue
			}
			lat, err := parseLattice(scanner)
			if err != nil {
				return nil, err
			}
			sim.Lattice = lat
			haveLattice = true

		case strings.Contains(line, "POSITION") && strings.Contains(line, "TOTAL-FORCE"):
			if sim.IonCount == 0 || !haveLattice {
				return nil, fmt.Errorf("%w: position block before ion count or lattice", domain.ErrInvalidFileFormat)
			}
			snap, err := r.parseBlock(scanner, sim.IonCount, sim.Lattice.Constant())
			if err != nil {
				return nil, err
			}
			pending = snap

		case strings.Contains(line, "free  energy   TOTEN"):
			if pending == nil {
				r.logger.Warn("Energy line without a position block, skipped")
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 5 {
				return nil, fmt.Errorf("%w: malformed energy line", domain.ErrInvalidFileFormat)
			}
			e, err := strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFileFormat, err)
			}
			pending.Energy = e
			sim.Snapshots = append(sim.Snapshots, *pending)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sim.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshots found", domain.ErrInvalidFileFormat)
	}

	total := len(sim.Snapshots)
	if stride > 1 {
		kept := sim.Snapshots[:0]
		for i, snap := range sim.Snapshots {
			if i%stride == 0 {
				kept = append(kept, snap)
			}
		}
		sim.Snapshots = kept
	}

	r.logger.Info("Parsed simulation output",
		zap.String("file", filename),
		zap.Int("ions", sim.IonCount),
		zap.Int("snapshots", total),
		zap.Int("kept", len(sim.Snapshots)),
		zap.Int("stride", stride))

	return sim, nil
}

func (r *OutcarReader) parseBlock(scanner *bufio.Scanner, nIons int, latConst float64) (*domain.Snapshot, error) {
	// dashed separator after the header
	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: truncated position block", domain.ErrInvalidFileFormat)
	}

	snap := &domain.Snapshot{
		Positions: make([]r3.Vec, 0, nIons),
		Forces:    make([]r3.Vec, 0, nIons),
	}
	for i := 0; i < nIons; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: truncated position block", domain.ErrInvalidFileFormat)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != 6 {
			return nil, fmt.Errorf("%w: position/force row with %d columns", domain.ErrInvalidFileFormat, len(fields))
		}
		vals := make([]float64, 6)
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFileFormat, err)
			}
			vals[j] = v
		}
		snap.Positions = append(snap.Positions, r3.Vec{X: vals[0] / latConst, Y: vals[1] / latConst, Z: vals[2] / latConst})
		snap.Forces = append(snap.Forces, r3.Vec{X: vals[3], Y: vals[4], Z: vals[5]})
	}
	return snap, nil
}

func parseIonCounts(line string) (int, error) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: malformed ions-per-type line", domain.ErrInvalidFileFormat)
	}
	total := 0
	for _, f := range strings.Fields(parts[1]) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidFileFormat, err)
		}
		total += n
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: zero ions", domain.ErrInvalidFileFormat)
	}
	return total, nil
}

func parseLattice(scanner *bufio.Scanner) (domain.Lattice, error) {
	var lat domain.Lattice
	for i := 0; i < 3; i++ {
		if !scanner.Scan() {
			return lat, fmt.Errorf("%w: truncated lattice block", domain.ErrInvalidFileFormat)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return lat, fmt.Errorf("%w: lattice row with %d columns", domain.ErrInvalidFileFormat, len(fields))
		}
		var v [3]float64
		for j := 0; j < 3; j++ {
			f, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return lat, fmt.Errorf("%w: %v", domain.ErrInvalidFileFormat, err)
			}
			v[j] = f
		}
		lat.Vectors[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	return lat, nil
}
