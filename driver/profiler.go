package driver

import (
	"log"
	"os"
	"runtime"
	"runtime/pprof"
)

type Profiler struct {
	f        *os.File
	filename string
}

// NewProfiler starts a CPU profile written to filename. An empty filename
// gives a Profiler that does nothing.
func NewProfiler(filename string) *Profiler {
	prof := new(Profiler)
	prof.filename = filename
	if filename != "" {
		var err error
		prof.f, err = os.Create(filename)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(prof.f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}
	return prof
}

// Close stops the CPU profile and writes a heap profile next to it.
func (p *Profiler) Close() error {
	if p.f == nil {
		return nil
	}
	pprof.StopCPUProfile()
	if err := p.f.Close(); err != nil {
		return err
	}

	runtime.GC()
	memProf, err := os.Create(p.filename + "-mem.prof")
	if err != nil {
		return err
	}
	defer memProf.Close()
	return pprof.WriteHeapProfile(memProf)
}
