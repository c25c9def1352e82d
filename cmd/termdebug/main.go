// Command termdebug runs a program under a pty and logs every byte that
// crosses the terminal in both directions. Useful for inspecting the exact
// escape sequences a terminal sends for a key and the sequences editline
// emits to render.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func logCopy(dst io.Writer, src io.Reader, logw io.Writer, name string) {
	buf := make([]byte, 4096)
	for {
		nr, errR := src.Read(buf)
		if nr > 0 {
			fmt.Fprintf(logw, "%s: %q\n", name, buf[:nr])
			nw, errW := dst.Write(buf[:nr])
			if errW != nil {
				fmt.Fprintf(logw, "%s: write error: %+v\n", name, errW)
				break
			}
			if nr != nw {
				fmt.Fprintf(logw, "%s: short write (nr=%d, nw=%d)\n", name, nr, nw)
				break
			}
		}
		if errR != nil {
			if errR != io.EOF {
				fmt.Fprintf(logw, "%s: read error: %+v\n", name, errR)
			}
			break
		}
	}
}

func main() {
	logPath := flag.String("log", "termdebug.txt", "path of the byte log")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-log file] <command> [<args>]\n", os.Args[0])
		os.Exit(1)
	}

	logFile, err := os.Create(*logPath)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	c := exec.Command(flag.Arg(0), flag.Args()[1:]...)
	ptmx, err := pty.Start(c)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = ptmx.Close() }()

	// Propagate window size changes to the pty.
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
				fmt.Fprintf(logFile, "resize error: %+v\n", err)
			}
		}
	}()
	ch <- syscall.SIGWINCH
	defer func() { signal.Stop(ch); close(ch) }()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	// NOTE: the stdin goroutine keeps reading until the next keystroke after
	// the child exits.
	go func() {
		logCopy(ptmx, os.Stdin, logFile, "stdin")
	}()
	logCopy(os.Stdout, ptmx, logFile, "stdout")
}
