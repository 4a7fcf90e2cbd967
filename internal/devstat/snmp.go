// Package devstat reads live device status through the standard
// printer MIBs and IPP: identity, page counters and toner levels over
// SNMP, printer state over IPP. It is read-only; account maintenance
// goes through the management services instead.
package devstat

import (
	"context"
	"sort"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation = ".1.3.6.1.2.1.1.6.0"

	// prtMarkerLifeCount of the first marker: total impressions.
	oidLifeCount = ".1.3.6.1.2.1.43.10.2.1.4.1.1"

	oidSupplyDescr = ".1.3.6.1.2.1.43.11.1.1.6.1"
	oidSupplyMax   = ".1.3.6.1.2.1.43.11.1.1.8.1"
	oidSupplyLevel = ".1.3.6.1.2.1.43.11.1.1.9.1"
)

// Target addresses one device's SNMP agent.
type Target struct {
	Host      string
	Port      int
	Community string
	Timeout   time.Duration
}

// Identity is the device's own description of itself.
type Identity struct {
	Name      string
	Location  string
	Model     string
	PageCount int
}

// Supply is one marker supply row from the printer MIB.
type Supply struct {
	Index       string
	Description string
	Level       int
	MaxCapacity int
}

// Percent returns the fill level in percent, or -1 when the row does
// not carry enough to tell.
func (s Supply) Percent() int {
	if s.MaxCapacity <= 0 || s.Level < 0 {
		return -1
	}
	return (s.Level * 100) / s.MaxCapacity
}

// SupplyStatus summarizes the supply table. State is one of "ok",
// "low", "empty" or "unknown".
type SupplyStatus struct {
	State    string
	Supplies []Supply
}

func connect(t Target) (*gosnmp.GoSNMP, error) {
	params := &gosnmp.GoSNMP{
		Target:    t.Host,
		Port:      161,
		Community: t.Community,
		Version:   gosnmp.Version2c,
		Timeout:   2 * time.Second,
		Retries:   1,
	}
	if t.Port > 0 {
		params.Port = uint16(t.Port)
	}
	if t.Community == "" {
		params.Community = "public"
	}
	if t.Timeout > 0 {
		params.Timeout = t.Timeout
	}
	if err := params.Connect(); err != nil {
		return nil, err
	}
	return params, nil
}

// FetchIdentity reads the system group and the marker life count.
func FetchIdentity(ctx context.Context, t Target) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	params, err := connect(t)
	if err != nil {
		return Identity{}, err
	}
	defer params.Conn.Close()

	result, err := params.Get([]string{oidSysName, oidSysLocation, oidSysDescr, oidLifeCount})
	if err != nil {
		return Identity{}, err
	}
	id := Identity{}
	for _, v := range result.Variables {
		switch v.Name {
		case oidSysName:
			id.Name = pduString(v.Value)
		case oidSysLocation:
			id.Location = pduString(v.Value)
		case oidSysDescr:
			id.Model = pduString(v.Value)
		case oidLifeCount:
			if n, ok := pduInt(v.Value); ok {
				id.PageCount = n
			}
		}
	}
	return id, nil
}

// FetchSupplies walks the supply columns and classifies the result.
func FetchSupplies(ctx context.Context, t Target) (SupplyStatus, error) {
	if err := ctx.Err(); err != nil {
		return SupplyStatus{State: "unknown"}, err
	}
	params, err := connect(t)
	if err != nil {
		return SupplyStatus{State: "unknown"}, err
	}
	defer params.Conn.Close()

	descr := map[string]string{}
	maxCap := map[string]int{}
	level := map[string]int{}
	_ = params.BulkWalk(oidSupplyDescr, func(pdu gosnmp.SnmpPDU) error {
		if idx := oidIndex(pdu.Name, oidSupplyDescr); idx != "" {
			descr[idx] = pduString(pdu.Value)
		}
		return nil
	})
	_ = params.BulkWalk(oidSupplyMax, func(pdu gosnmp.SnmpPDU) error {
		if idx := oidIndex(pdu.Name, oidSupplyMax); idx != "" {
			if n, ok := pduInt(pdu.Value); ok {
				maxCap[idx] = n
			}
		}
		return nil
	})
	_ = params.BulkWalk(oidSupplyLevel, func(pdu gosnmp.SnmpPDU) error {
		if idx := oidIndex(pdu.Name, oidSupplyLevel); idx != "" {
			if n, ok := pduInt(pdu.Value); ok {
				level[idx] = n
			}
		}
		return nil
	})

	supplies := make([]Supply, 0, len(level))
	for idx, lvl := range level {
		supplies = append(supplies, Supply{
			Index:       idx,
			Description: descr[idx],
			Level:       lvl,
			MaxCapacity: maxCap[idx],
		})
	}
	sort.Slice(supplies, func(i, j int) bool { return supplies[i].Index < supplies[j].Index })
	return SupplyStatus{State: classifySupplies(supplies), Supplies: supplies}, nil
}

func classifySupplies(supplies []Supply) string {
	if len(supplies) == 0 {
		return "unknown"
	}
	lowest := 101
	for _, s := range supplies {
		if p := s.Percent(); p >= 0 && p < lowest {
			lowest = p
		}
	}
	switch {
	case lowest == 0:
		return "empty"
	case lowest <= 10:
		return "low"
	default:
		return "ok"
	}
}

func oidIndex(name, base string) string {
	if len(name) > len(base)+1 && name[:len(base)] == base && name[len(base)] == '.' {
		return name[len(base)+1:]
	}
	return ""
}

// pduString tolerates both string and raw octet values; agents differ.
func pduString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func pduInt(val any) (int, bool) {
	if val == nil {
		return 0, false
	}
	if bi := gosnmp.ToBigInt(val); bi != nil {
		return int(bi.Int64()), true
	}
	return 0, false
}
