package reconcile

import (
	"fmt"
	"time"

	"github.com/filehose/filehose/pkg/tracking"
)

// Side marks which store an unpaired record came from.
type Side string

const (
	SideIngress Side = "INGRESS_ONLY"
	SideEgress  Side = "EGRESS_ONLY"
)

// Severity classifies an unpaired record. A record whose username belongs to
// a configured job lost its counterpart unexpectedly and is an error;
// anything else is unrecognized external traffic and only a warning.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// AnomalyKind names a data-integrity finding that must be surfaced rather
// than silently repaired.
type AnomalyKind string

const (
	AnomalyDuplicateUUID    AnomalyKind = "DUPLICATE_UUID"
	AnomalyFieldMismatch    AnomalyKind = "FIELD_MISMATCH"
	AnomalyNegativeDuration AnomalyKind = "NEGATIVE_DURATION"
)

type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	UUID   string      `json:"uuid"`
	Detail string      `json:"detail"`
}

// Pair is one reconciled transaction: the full lifecycle of a file transfer
// as seen by both stores. The egress status is authoritative for pass/fail;
// the ingress status is informational. Duration is egress end minus ingress
// start and is nil while the egress side has no end time.
type Pair struct {
	UUID          string         `json:"uuid"`
	Username      string         `json:"username"`
	Filename      string         `json:"filename"`
	IngressStatus string         `json:"ingressStatus"`
	EgressStatus  string         `json:"egressStatus"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       *time.Time     `json:"endTime"`
	Duration      *time.Duration `json:"duration"`
}

type Unpaired struct {
	Side     Side            `json:"side"`
	Severity Severity        `json:"severity"`
	Record   tracking.Record `json:"record"`
}

type Result struct {
	Paired          []Pair     `json:"paired"`
	UnpairedIngress []Unpaired `json:"unpairedIngress"`
	UnpairedEgress  []Unpaired `json:"unpairedEgress"`
	Anomalies       []Anomaly  `json:"anomalies"`
}

// Correlate merges the two record sets by uuid. It is a pure, single-pass
// computation: the egress side is indexed by uuid and the ingress side
// probes it, so cost is linear in the two set sizes and independent of
// timespan ordering. knownUsers holds the usernames of the configured jobs
// and drives unpaired severity.
//
// Duplicate uuids within one side are reported as anomalies; every duplicate
// instance pairs against the opposite side's first record when one exists,
// and every unmatched duplicate instance appears as its own unpaired entry.
func Correlate(ingress, egress []tracking.Record, knownUsers map[string]bool) Result {
	var res Result

	egressByUUID := make(map[string][]tracking.Record, len(egress))
	for _, e := range egress {
		egressByUUID[e.UUID] = append(egressByUUID[e.UUID], e)
	}
	for uuid, recs := range egressByUUID {
		if len(recs) > 1 {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:   AnomalyDuplicateUUID,
				UUID:   uuid,
				Detail: fmt.Sprintf("%d egress records share this uuid", len(recs)),
			})
		}
	}

	ingressSeen := make(map[string]int, len(ingress))
	var firstIngress = make(map[string]tracking.Record)
	for _, i := range ingress {
		ingressSeen[i.UUID]++
		if ingressSeen[i.UUID] == 1 {
			firstIngress[i.UUID] = i
		}
	}
	for uuid, n := range ingressSeen {
		if n > 1 {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:   AnomalyDuplicateUUID,
				UUID:   uuid,
				Detail: fmt.Sprintf("%d ingress records share this uuid", n),
			})
		}
	}

	// every ingress instance either pairs with the first egress record for
	// its uuid or is reported unpaired
	for _, i := range ingress {
		matches, ok := egressByUUID[i.UUID]
		if !ok {
			res.UnpairedIngress = append(res.UnpairedIngress, unpaired(SideIngress, i, knownUsers))
			continue
		}
		res.addPair(i, matches[0])
	}

	// extra egress duplicates pair against the first ingress record; egress
	// records with no ingress at all are unpaired. The first egress instance
	// per uuid was already consumed by the ingress pass above.
	egressPos := make(map[string]int, len(egressByUUID))
	for _, e := range egress {
		pos := egressPos[e.UUID]
		egressPos[e.UUID] = pos + 1
		i, ok := firstIngress[e.UUID]
		if !ok {
			res.UnpairedEgress = append(res.UnpairedEgress, unpaired(SideEgress, e, knownUsers))
			continue
		}
		if pos > 0 {
			res.addPair(i, e)
		}
	}

	return res
}

func (res *Result) addPair(i, e tracking.Record) {
	p := Pair{
		UUID:          i.UUID,
		Username:      i.Username,
		Filename:      i.Filename,
		IngressStatus: i.Status,
		EgressStatus:  e.Status,
		StartTime:     i.StartTime,
		EndTime:       e.EndTime,
	}
	if e.EndTime != nil {
		d := e.EndTime.Sub(i.StartTime)
		p.Duration = &d
		// clock skew between the stores can put egress end before ingress
		// start; flag it, keep the value
		if d < 0 {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Kind:   AnomalyNegativeDuration,
				UUID:   i.UUID,
				Detail: fmt.Sprintf("egress ended %v before ingress started", -d),
			})
		}
	}
	if i.Username != e.Username {
		res.Anomalies = append(res.Anomalies, Anomaly{
			Kind:   AnomalyFieldMismatch,
			UUID:   i.UUID,
			Detail: fmt.Sprintf("username differs between sides: %q vs %q", i.Username, e.Username),
		})
	}
	if i.Filename != e.Filename {
		res.Anomalies = append(res.Anomalies, Anomaly{
			Kind:   AnomalyFieldMismatch,
			UUID:   i.UUID,
			Detail: fmt.Sprintf("filename differs between sides: %q vs %q", i.Filename, e.Filename),
		})
	}
	res.Paired = append(res.Paired, p)
}

func unpaired(side Side, r tracking.Record, knownUsers map[string]bool) Unpaired {
	severity := SeverityWarning
	if knownUsers[r.Username] {
		severity = SeverityError
	}
	return Unpaired{Side: side, Severity: severity, Record: r}
}
