//go:build linux

package monitor

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// pipeGrace bounds the output drain once the process group has been killed.
// Only a descendant that left the group (setsid) can hold the pipes that long.
const pipeGrace = 5 * time.Second

// child is a spawned command. done is closed as soon as the process itself
// has been reaped; drained is closed once both output pipes reached EOF or
// were cut off. The two are independent: a background grandchild may keep
// the pipes open after the shell exited.
type child struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer

	outR, errR *os.File

	done    chan struct{}
	drained chan struct{}
	waitErr error

	releaseOnce sync.Once
}

func spawn(name string, args []string, dir string, env []string) (*child, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	c := &child{
		outR:    outR,
		errR:    errR,
		done:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	c.cmd = exec.Command(name, args...)
	c.cmd.Dir = dir
	c.cmd.Env = env
	// *os.File outputs are handed to the process directly, so Wait returns
	// on exit instead of waiting for the copy.
	c.cmd.Stdout = outW
	c.cmd.Stderr = errW
	// own process group so a shell and everything it forks can be killed together
	c.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	err = c.cmd.Start()
	outW.Close()
	errW.Close()
	if err != nil {
		outR.Close()
		errR.Close()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, &c.stdout, outR)
	go drain(&wg, &c.stderr, errR)
	go func() {
		wg.Wait()
		close(c.drained)
	}()
	go func() {
		c.waitErr = c.cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

func drain(wg *sync.WaitGroup, dst *bytes.Buffer, src *os.File) {
	defer wg.Done()
	// a read error (os.ErrClosed after the grace cut-off) truncates output
	_, _ = io.Copy(dst, src)
}

func (c *child) pid() int { return c.cmd.Process.Pid }

// exited reports, without blocking, whether the process has been reaped.
func (c *child) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// release kills whatever is left of the process group, waits for the reap
// and for the output to drain. It is safe to call more than once.
func (c *child) release() {
	c.releaseOnce.Do(func() {
		// pgid == pid; the group outlives its leader while any member remains
		if err := unix.Kill(-c.pid(), unix.SIGKILL); err != nil && !c.exited() {
			_ = c.cmd.Process.Kill()
		}
		<-c.done

		t := time.NewTimer(pipeGrace)
		defer t.Stop()
		select {
		case <-c.drained:
		case <-t.C:
			c.outR.Close()
			c.errR.Close()
			<-c.drained
		}
		c.outR.Close()
		c.errR.Close()
	})
}

func (c *child) exitCode() int { return c.cmd.ProcessState.ExitCode() }

func (c *child) cpuTime() time.Duration {
	ps := c.cmd.ProcessState
	return ps.UserTime() + ps.SystemTime()
}
