package runner

import "context"

// TunnelConfig is the value bound by TunnelTag.With: the set of tasks
// and events a tunnel resource claims, plus a transport-specific mode
// string the kernel never interprets (§Tunnel, §Glossary Tunnel).
type TunnelConfig struct {
	Tasks  []AnyTask
	Events []AnyEvent
	Mode   string
}

// TunnelTag identifies a resource as a tunnel. Kernel involvement stops
// at ownership detection (Validator) and phantom-task delegation
// (Invoker); the actual out-of-process transport is the resource's own
// concern. This repository ships no example tunnel implementation.
var TunnelTag = NewTag[TunnelConfig, any, any]("runner.tunnel")

// TunnelRunner is the contract a tunnel resource's value must satisfy so
// the Invoker can delegate a phantom task's invocation to it.
type TunnelRunner interface {
	RunTunneledTask(ctx context.Context, taskID string, input any) (any, error)
}

// tunnelClaims returns the taskID -> tunnelID map implied by every
// registered resource carrying TunnelTag, alongside the raw claims list
// used by the Validator to report conflicts with every claiming tunnel
// named (not just the first).
func tunnelClaims(resources []AnyResource) (map[string]string, map[string][]string) {
	owner := make(map[string]string)
	claimants := make(map[string][]string)

	for _, res := range resources {
		cfg, ok := TunnelTag.Extract(res)
		if !ok {
			continue
		}
		for _, task := range cfg.Tasks {
			claimants[task.ID()] = append(claimants[task.ID()], res.ID())
			if _, taken := owner[task.ID()]; !taken {
				owner[task.ID()] = res.ID()
			}
		}
	}

	return owner, claimants
}
