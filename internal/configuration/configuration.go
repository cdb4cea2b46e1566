package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clambin/ledrotator/internal/version"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	ModeRotation = "rotation"
	ModeSequence = "sequence"

	HandoffPriority = "priority"
	HandoffToken    = "token"

	BoardSimulated = "sim"
	BoardSysfs     = "sysfs"
	BoardGPIO      = "gpio"
	BoardRPIO      = "rpio"
)

type Configuration struct {
	Port      int
	Mode      string
	Board     BoardConfiguration
	Scheduler SchedulerConfiguration
	Rotation  RotationConfiguration
	Sequence  SequenceConfiguration
	Debug     bool
}

type BoardConfiguration struct {
	Type  string
	Red   string
	Green string
	Blue  string
}

// LEDs returns the names of the red, green and blue LEDs, in that order
func (c BoardConfiguration) LEDs() [3]string {
	return [3]string{c.Red, c.Green, c.Blue}
}

type SchedulerConfiguration struct {
	Tick     time.Duration
	MaxTasks int
}

type RotationConfiguration struct {
	Handoff string
	Hold    time.Duration
}

type SequenceConfiguration struct {
	DelayTicks uint32
}

var defaultLEDs = map[string][3]string{
	BoardSysfs: {"/sys/class/leds/red", "/sys/class/leds/green", "/sys/class/leds/blue"},
	BoardGPIO:  {"GPIO17", "GPIO27", "GPIO22"},
	BoardRPIO:  {"17", "27", "22"},
}

// GetConfigFromArgs parses the command line arguments. If no LEDs are specified, the defaults for the selected board are used.
func GetConfigFromArgs(args []string) (Configuration, error) {
	var cfg Configuration

	a := kingpin.New(filepath.Base(os.Args[0]), "ledrotator")
	a.Version(version.BuildVersion)
	a.HelpFlag.Short('h')
	a.VersionFlag.Short('v')
	a.Flag("debug", "Log debug messages").Short('d').Default("false").BoolVar(&cfg.Debug)
	a.Flag("port", "Status & metrics listener port (-1: don't run the listener)").Default("8080").IntVar(&cfg.Port)
	a.Flag("mode", "LED pattern mode (rotation or sequence)").Short('m').Default(ModeRotation).EnumVar(&cfg.Mode, ModeRotation, ModeSequence)
	a.Flag("tick", "Duration of one scheduler tick").Default("1ms").DurationVar(&cfg.Scheduler.Tick)
	a.Flag("max-tasks", "Maximum number of tasks the scheduler can hold").Default("8").IntVar(&cfg.Scheduler.MaxTasks)
	a.Flag("handoff", "Rotation handoff (priority or token)").Default(HandoffPriority).EnumVar(&cfg.Rotation.Handoff, HandoffPriority, HandoffToken)
	a.Flag("hold", "Time a LED stays on (and off) during rotation").Default("500ms").DurationVar(&cfg.Rotation.Hold)
	a.Flag("delay-ticks", "Ticks a LED stays on during sequence").Default("10000").Uint32Var(&cfg.Sequence.DelayTicks)
	a.Flag("board", "Board type (sim, sysfs, gpio or rpio)").Short('b').Default(BoardSimulated).EnumVar(&cfg.Board.Type, BoardSimulated, BoardSysfs, BoardGPIO, BoardRPIO)
	a.Flag("led-red", "Red LED (sysfs directory, gpio pin name or BCM pin number)").StringVar(&cfg.Board.Red)
	a.Flag("led-green", "Green LED (sysfs directory, gpio pin name or BCM pin number)").StringVar(&cfg.Board.Green)
	a.Flag("led-blue", "Blue LED (sysfs directory, gpio pin name or BCM pin number)").StringVar(&cfg.Board.Blue)

	if _, err := a.Parse(args); err != nil {
		return cfg, fmt.Errorf("invalid command line arguments: %w", err)
	}

	if leds, ok := defaultLEDs[cfg.Board.Type]; ok {
		setDefault(&cfg.Board.Red, leds[0])
		setDefault(&cfg.Board.Green, leds[1])
		setDefault(&cfg.Board.Blue, leds[2])
	}
	if cfg.Scheduler.Tick <= 0 {
		return cfg, fmt.Errorf("invalid tick: %s", cfg.Scheduler.Tick)
	}
	return cfg, nil
}

func setDefault(value *string, defaultValue string) {
	if *value == "" {
		*value = defaultValue
	}
}
