// Package rebuild tracks the filesystem paths a build depends on so that a
// change to any of them triggers the next build.
package rebuild

// Notifier receives "rebuild if this path changes" notices during a scan.
type Notifier interface {
	RebuildIfChanged(path string)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) RebuildIfChanged(string) {}

// Func adapts a function to the Notifier interface.
type Func func(path string)

func (f Func) RebuildIfChanged(path string) { f(path) }

// Multi fans notices out to every notifier.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

type multi []Notifier

func (m multi) RebuildIfChanged(path string) {
	for _, n := range m {
		if n != nil {
			n.RebuildIfChanged(path)
		}
	}
}
