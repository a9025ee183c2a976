// Package loader is the supervisor: attach the two classifiers to an
// interface and open the three shared maps (pinned, so a restart reattaches
// instead of losing state). The control-plane RPC and healthz servers are
// run by cmd/loader on top of the Supervisor's Tables. Modeled on
// original_source/dataplane/loader/src/main.rs's responsibilities,
// translated into cilium/ebpf + vishvananda/netlink idiom.
package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/vishvananda/netlink"

	blixtbpf "github.com/kubernetes-sigs/blixt/bpf"
	"github.com/kubernetes-sigs/blixt/internal/dataplane/bpfmaps"
	"github.com/kubernetes-sigs/blixt/internal/errs"
	"github.com/kubernetes-sigs/blixt/internal/log"
)

var logger = log.For("loader")

// DefaultPinDir is where the classifier programs and shared maps are
// pinned, matching spec.md §6.
const DefaultPinDir = "/sys/fs/bpf/blixt"

// Config controls one Supervisor.
type Config struct {
	Interface string
	// ForceReload removes any existing pins before loading, rather than
	// reattaching to what is already there.
	ForceReload bool
	PinDir      string
}

func (c Config) pinDir() string {
	if c.PinDir != "" {
		return c.PinDir
	}
	return DefaultPinDir
}

// Supervisor owns the lifetime of the loaded programs, their qdisc
// attachments, and the Tables built on top of the pinned maps.
type Supervisor struct {
	cfg Config

	mu          sync.Mutex
	ready       bool
	readyReason string

	ingress *blixtbpf.IngressObjects
	egress  *blixtbpf.EgressObjects
	tables  *bpfmaps.Tables
}

// NewSupervisor builds an unattached Supervisor; call Attach before using
// Tables.
func NewSupervisor(cfg Config) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Tables returns the shared maps opened by the most recent Attach call.
func (s *Supervisor) Tables() *bpfmaps.Tables {
	return s.tables
}

// Ready implements internal/healthz.ReadyChecker.
func (s *Supervisor) Ready() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready, s.readyReason
}

func (s *Supervisor) setReady(ok bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ok
	s.readyReason = reason
}

// Attach loads both classifiers, pins the three shared maps by name directly
// under cfg.PinDir, and attaches the programs to cfg.Interface's clsact
// qdisc. The programs themselves are not pinned; every Attach loads fresh
// program instances. If ForceReload is set, the whole pin directory, map
// pins included, is removed first, so the load starts from empty maps;
// otherwise map pins already present are reused so in-flight connections
// survive a loader restart (spec.md §4.8).
func (s *Supervisor) Attach() error {
	s.setReady(false, "attaching")

	pinDir := s.cfg.pinDir()
	if s.cfg.ForceReload {
		if err := removeProgramPins(pinDir); err != nil {
			s.setReady(false, err.Error())
			return err
		}
	}
	if err := os.MkdirAll(pinDir, 0o755); err != nil {
		err = fmt.Errorf("%w: creating pin directory: %v", errs.ErrMapIO, err)
		s.setReady(false, err.Error())
		return err
	}

	link, err := netlink.LinkByName(s.cfg.Interface)
	if err != nil {
		err = fmt.Errorf("%w: resolving interface %s: %v", errs.ErrRouteLookup, s.cfg.Interface, err)
		s.setReady(false, err.Error())
		return err
	}

	if err := ensureClsact(link); err != nil {
		s.setReady(false, err.Error())
		return err
	}

	var ingressObjs blixtbpf.IngressObjects
	if err := blixtbpf.LoadIngressObjects(&ingressObjs, pinOptions(pinDir)); err != nil {
		err = fmt.Errorf("%w: loading ingress objects: %v", errs.ErrMapIO, err)
		s.setReady(false, err.Error())
		return err
	}
	s.ingress = &ingressObjs

	var egressObjs blixtbpf.EgressObjects
	if err := blixtbpf.LoadEgressObjects(&egressObjs, pinOptions(pinDir)); err != nil {
		err = fmt.Errorf("%w: loading egress objects: %v", errs.ErrMapIO, err)
		s.setReady(false, err.Error())
		return err
	}
	s.egress = &egressObjs

	if err := attachFilter(link, ingressObjs.ClassifyIngress, netlink.HANDLE_MIN_INGRESS); err != nil {
		s.setReady(false, err.Error())
		return err
	}
	if err := attachFilter(link, egressObjs.ClassifyEgress, netlink.HANDLE_MIN_EGRESS); err != nil {
		s.setReady(false, err.Error())
		return err
	}

	// Both objects sets declare the same three pinned maps; cilium/ebpf
	// resolves a pin-by-name map against whatever is already on disk, so
	// ingressObjs and egressObjs share the identical kernel map -- this
	// just picks ingress's handle as the one Tables wraps.
	s.tables = bpfmaps.NewEbpfTables(ingressObjs.Backends, ingressObjs.GatewayIndexes, ingressObjs.LbConnections)

	logger.WithField("iface", s.cfg.Interface).Info("classifiers attached")
	s.setReady(true, "")
	return nil
}

func pinOptions(pinDir string) *ebpf.CollectionOptions {
	return &ebpf.CollectionOptions{Maps: ebpf.MapOptions{PinPath: pinDir}}
}

// Close detaches nothing explicitly (the tc filters keep the programs
// attached after this process exits) but releases this process's handles.
func (s *Supervisor) Close() {
	if s.ingress != nil {
		s.ingress.Close()
	}
	if s.egress != nil {
		s.egress.Close()
	}
}

func removeProgramPins(pinDir string) error {
	err := os.RemoveAll(pinDir)
	if err != nil {
		return fmt.Errorf("%w: removing existing pins: %v", errs.ErrMapIO, err)
	}
	return nil
}

// ensureClsact adds a clsact qdisc to link if one is not already present,
// the idempotent-attach requirement (spec.md §4.8): a loader restart must
// not error out because the qdisc is already there.
func ensureClsact(link netlink.Link) error {
	qdiscs, err := netlink.QdiscList(link)
	if err != nil {
		return fmt.Errorf("%w: listing qdiscs: %v", errs.ErrMapIO, err)
	}
	for _, q := range qdiscs {
		if q.Type() == "clsact" {
			return nil
		}
	}

	qdisc := &netlink.GenericQdisc{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: link.Attrs().Index,
			Handle:    netlink.MakeHandle(0xffff, 0),
			Parent:    netlink.HANDLE_CLSACT,
		},
		QdiscType: "clsact",
	}
	if err := netlink.QdiscAdd(qdisc); err != nil {
		return fmt.Errorf("%w: adding clsact qdisc: %v", errs.ErrMapIO, err)
	}
	return nil
}

// attachFilter installs prog as a direct-action BPF filter at parent
// (ingress or egress), replacing any filter already attached there so
// reattachment is idempotent.
func attachFilter(link netlink.Link, prog *ebpf.Program, parent uint32) error {
	filter := &netlink.BpfFilter{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: link.Attrs().Index,
			Parent:    parent,
			Handle:    netlink.MakeHandle(0, 1),
			Protocol:  3, // ETH_P_ALL in host order, matches tc's own default
			Priority:  1,
		},
		Fd:           prog.FD(),
		Name:         prog.String(),
		DirectAction: true,
	}
	if err := netlink.FilterReplace(filter); err != nil {
		return fmt.Errorf("%w: attaching filter: %v", errs.ErrMapIO, err)
	}
	return nil
}
