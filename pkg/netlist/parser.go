// Package netlist turns a SPICE-card text description into the
// resolved View engines consult: node and auxiliary-unknown indexing,
// stable device enumeration, and a connectivity diagnostic for
// floating sub-networks.
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AnalysisKind names the directive a parsed deck requested.
type AnalysisKind int

const (
	AnalysisOP AnalysisKind = iota
	AnalysisDC
	AnalysisAC
	AnalysisTRAN
)

// Deck is the raw parse of a netlist text: elements plus the analysis
// directive and its parameters.
type Deck struct {
	Title     string
	Elements  []Element
	Models    map[string]Model
	Analysis  AnalysisKind
	Tran      TranDirective
	AC        ACDirective
	DCSweep   DCSweepDirective
}

type Element struct {
	Type   string
	Name   string
	Nodes  []string
	Value  float64
	Params map[string]string
}

// Model is a named .model override block, keyed by its name and
// applicable to the device types that reference it (only "D" today).
type Model struct {
	Name   string
	Type   string
	Params map[string]float64
}

type TranDirective struct {
	TStep, TStop, TStart, TMax float64
	UIC                        bool
}

type ACDirective struct {
	Sweep          string // DEC, OCT, LIN
	Points         int
	FStart, FStop  float64
}

type DCSweepDirective struct {
	Source1                         string
	Start1, Stop1, Increment1       float64
}

var unitMap = map[string]float64{
	"T": 1e12, "G": 1e9, "meg": 1e6, "K": 1e3, "k": 1e3,
	"m": 1e-3, "u": 1e-6, "n": 1e-9, "p": 1e-12, "f": 1e-15,
}

var valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?s?$`)

// ParseValue parses a SPICE numeric literal with an optional unit
// suffix, e.g. "4.7k" -> 4700. Plain scientific notation ("1e-15")
// is accepted alongside suffix form.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}
	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}
	if matches[2] != "" {
		if mult, ok := unitMap[matches[2]]; ok {
			num *= mult
		}
	}
	return num, nil
}

// Parse reads a SPICE-card deck into a Deck. It does not resolve node
// indices or build devices; see Build.
func Parse(input string) (*Deck, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	deck := &Deck{Models: make(map[string]Model)}

	if scanner.Scan() {
		deck.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if err := parseDirective(deck, line); err != nil {
				return nil, err
			}
			continue
		}
		elem, err := parseElement(line)
		if err != nil {
			return nil, err
		}
		deck.Elements = append(deck.Elements, *elem)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("netlist: scan: %w", err)
	}
	return deck, nil
}

func parseDirective(deck *Deck, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("netlist: empty directive")
	}

	switch strings.ToLower(fields[0]) {
	case ".op":
		deck.Analysis = AnalysisOP

	case ".tran":
		deck.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return fmt.Errorf("netlist: .tran needs at least tstep and tstop")
		}
		var err error
		if deck.Tran.TStep, err = ParseValue(fields[1]); err != nil {
			return fmt.Errorf("netlist: .tran tstep: %w", err)
		}
		if deck.Tran.TStop, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("netlist: .tran tstop: %w", err)
		}
		for i := 3; i < len(fields); i++ {
			if fields[i] == "uic" {
				deck.Tran.UIC = true
				continue
			}
			if i == 3 {
				if deck.Tran.TStart, err = ParseValue(fields[i]); err != nil {
					return fmt.Errorf("netlist: .tran tstart: %w", err)
				}
			}
			if i == 4 {
				if deck.Tran.TMax, err = ParseValue(fields[i]); err != nil {
					return fmt.Errorf("netlist: .tran tmax: %w", err)
				}
			}
		}
		if deck.Tran.TMax == 0 {
			deck.Tran.TMax = deck.Tran.TStep
		}

	case ".ac":
		deck.Analysis = AnalysisAC
		if len(fields) < 5 {
			return fmt.Errorf("netlist: .ac needs sweep type, points, fstart, fstop")
		}
		deck.AC.Sweep = strings.ToUpper(fields[1])
		var err error
		if deck.AC.Points, err = strconv.Atoi(fields[2]); err != nil {
			return fmt.Errorf("netlist: .ac points: %w", err)
		}
		if deck.AC.FStart, err = ParseValue(fields[3]); err != nil {
			return fmt.Errorf("netlist: .ac fstart: %w", err)
		}
		if deck.AC.FStop, err = ParseValue(fields[4]); err != nil {
			return fmt.Errorf("netlist: .ac fstop: %w", err)
		}

	case ".dc":
		deck.Analysis = AnalysisDC
		if len(fields) < 5 {
			return fmt.Errorf("netlist: .dc needs source, start, stop, increment")
		}
		deck.DCSweep.Source1 = fields[1]
		var err error
		if deck.DCSweep.Start1, err = ParseValue(fields[2]); err != nil {
			return fmt.Errorf("netlist: .dc start: %w", err)
		}
		if deck.DCSweep.Stop1, err = ParseValue(fields[3]); err != nil {
			return fmt.Errorf("netlist: .dc stop: %w", err)
		}
		if deck.DCSweep.Increment1, err = ParseValue(fields[4]); err != nil {
			return fmt.Errorf("netlist: .dc increment: %w", err)
		}

	case ".model":
		if len(fields) < 3 {
			return fmt.Errorf("netlist: .model needs a name and type")
		}
		m, err := parseModel(fields)
		if err != nil {
			return err
		}
		deck.Models[m.Name] = m

	default:
		return fmt.Errorf("netlist: unsupported directive: %s", fields[0])
	}
	return nil
}

var modelTypeRe = regexp.MustCompile(`^([A-Za-z]+)\((.*)\)$`)

func parseModel(fields []string) (Model, error) {
	rest := strings.Join(fields[2:], " ")
	m := Model{Name: fields[1], Params: make(map[string]float64)}

	match := modelTypeRe.FindStringSubmatch(rest)
	if match == nil {
		return Model{}, fmt.Errorf("netlist: .model %s: expected TYPE(param=value ...)", fields[1])
	}
	m.Type = strings.ToUpper(match[1])
	for _, kv := range strings.Fields(match[2]) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := ParseValue(parts[1])
		if err != nil {
			return Model{}, fmt.Errorf("netlist: .model %s param %s: %w", m.Name, parts[0], err)
		}
		m.Params[strings.ToLower(parts[0])] = v
	}
	return m, nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("netlist: invalid element: %s", line)
	}

	elemType := strings.ToUpper(string(fields[0][0]))
	switch elemType {
	case "V":
		return parseSource(fields, "V")
	case "I":
		return parseSource(fields, "I")
	case "D":
		return &Element{
			Type:   "D",
			Name:   fields[0],
			Nodes:  fields[1:3],
			Params: map[string]string{"model": orDefault(fields, 3, "")},
		}, nil
	case "Q":
		if len(fields) < 4 {
			return nil, fmt.Errorf("netlist: BJT %s needs collector, base, emitter nodes", fields[0])
		}
		return &Element{Type: "Q", Name: fields[0], Nodes: fields[1:4], Params: map[string]string{}}, nil
	case "K":
		if len(fields) < 4 {
			return nil, fmt.Errorf("netlist: mutual %s needs two inductor names and a coefficient", fields[0])
		}
		k, err := ParseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("netlist: mutual %s coefficient: %w", fields[0], err)
		}
		return &Element{
			Type:   "K",
			Name:   fields[0],
			Params: map[string]string{"l1": fields[1], "l2": fields[2]},
			Value:  k,
		}, nil
	default:
		// R, L, C: nodes then value.
		value, err := ParseValue(fields[len(fields)-1])
		if err != nil {
			return nil, fmt.Errorf("netlist: element %s value: %w", fields[0], err)
		}
		return &Element{
			Type:   elemType,
			Name:   fields[0],
			Nodes:  fields[1 : len(fields)-1],
			Value:  value,
			Params: map[string]string{},
		}, nil
	}
}

func orDefault(fields []string, idx int, def string) string {
	if idx < len(fields) {
		return fields[idx]
	}
	return def
}

func parseSource(fields []string, typ string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("netlist: source %s needs two nodes and a value", fields[0])
	}
	elem := &Element{Type: typ, Name: fields[0], Nodes: []string{fields[1], fields[2]}, Params: make(map[string]string)}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)
	if len(words) == 0 {
		return nil, fmt.Errorf("netlist: source %s missing waveform", fields[0])
	}

	switch strings.ToUpper(words[0]) {
	case "DC":
		if len(words) < 2 {
			return nil, fmt.Errorf("netlist: source %s missing DC value", fields[0])
		}
		elem.Params["type"] = "dc"
		v, err := ParseValue(words[1])
		if err != nil {
			return nil, err
		}
		elem.Value = v

	case "SIN":
		elem.Params["type"] = "sin"
		elem.Params["sin"] = strings.Trim(strings.Join(words[1:], " "), "() ")

	case "PULSE":
		elem.Params["type"] = "pulse"
		elem.Params["pulse"] = strings.Trim(strings.Join(words[1:], " "), "() ")

	case "AC":
		if len(words) < 2 {
			return nil, fmt.Errorf("netlist: source %s missing AC magnitude", fields[0])
		}
		elem.Params["type"] = "ac"
		mag, err := ParseValue(words[1])
		if err != nil {
			return nil, fmt.Errorf("netlist: source %s AC magnitude: %w", fields[0], err)
		}
		elem.Value = mag
		if len(words) > 2 {
			elem.Params["phase"] = words[2]
		} else {
			elem.Params["phase"] = "0"
		}

	default:
		return nil, fmt.Errorf("netlist: source %s unsupported waveform: %s", fields[0], words[0])
	}
	return elem, nil
}

func parseSinParams(params string) (offset, amplitude, freq, phase float64, err error) {
	fields := strings.Fields(params)
	if len(fields) < 3 {
		return 0, 0, 0, 0, fmt.Errorf("netlist: SIN needs offset, amplitude, freq")
	}
	if offset, err = ParseValue(fields[0]); err != nil {
		return
	}
	if amplitude, err = ParseValue(fields[1]); err != nil {
		return
	}
	if freq, err = ParseValue(fields[2]); err != nil {
		return
	}
	if len(fields) > 3 {
		phase, err = ParseValue(fields[3])
	}
	return
}

func parsePulseParams(params string) (i1, i2, delay, rise, fall, pWidth, period float64, err error) {
	fields := strings.Fields(params)
	if len(fields) < 7 {
		err = fmt.Errorf("netlist: PULSE needs 7 parameters")
		return
	}
	vals := make([]float64, 7)
	for i, f := range fields[:7] {
		if vals[i], err = ParseValue(f); err != nil {
			return
		}
	}
	return vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6], nil
}
