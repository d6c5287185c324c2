package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cyanoacrylate/ipcevents"
	"github.com/cyanoacrylate/ipcevents/log"
	"github.com/cyanoacrylate/ipcevents/option"
)

var (
	pipeFD   int
	emitDTLS bool
	logLevel string
)

func main() {
	command := &cobra.Command{
		Use:   "ipcevents",
		Short: "Emit a sample intercepting-proxy event stream over a pipe descriptor",
		Run:   run,
	}
	command.Flags().IntVar(&pipeFD, "fd", 1, "descriptor to write events to")
	command.Flags().BoolVar(&emitDTLS, "dtls", false, "mark handshake events as DTLS")
	command.Flags().StringVar(&logLevel, "log-level", "info", "set log level")
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	logFactory, err := log.New(option.LogOptions{Level: logLevel}, os.Stderr)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	logger := logFactory.NewLogger("demo")

	engine := newSampleEngine()
	relay := ipcevents.New(ipcevents.Options{
		Logger:     logFactory.NewLogger("ipc"),
		Servers:    engine,
		IPCOptions: option.IPCOptions{PipeFD: pipeFD},
	})
	if err = relay.Start(); err != nil {
		logger.Fatal(err)
	}
	if err = engine.playback(relay, emitDTLS); err != nil {
		logger.Fatal(err)
	}
	if err = relay.Close(); err != nil {
		logger.Fatal(err)
	}
}
