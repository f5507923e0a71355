package config

import "time"

// Config is the node's configuration file. It is loaded once at process
// start and treated as read-only afterwards.
type Config struct {
	Version    int              `yaml:"version"`
	Device     DeviceConfig     `yaml:"device"`
	WiFi       WiFiConfig       `yaml:"wifi"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	TimeSource TimeSourceConfig `yaml:"time_source"`
	Sensor     SensorConfig     `yaml:"sensor"`
	Indicator  IndicatorConfig  `yaml:"indicator"`
	OTA        OTAConfig        `yaml:"ota"`
	Cycle      CycleConfig      `yaml:"cycle"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig controls where the device identity comes from.
type DeviceConfig struct {
	// IdentityInterface is the network interface whose MAC becomes the device ID.
	IdentityInterface string `yaml:"identity_interface"`
	// MachineIDPath is the fallback identity source when the interface has no MAC.
	MachineIDPath string `yaml:"machine_id_path"`
}

// WiFiConfig holds station credentials and the join retry budget.
type WiFiConfig struct {
	SSID string `yaml:"ssid"`
	// Password may be left empty here and supplied via SNOWNODE_WIFI_PASSWORD.
	Password      string        `yaml:"password,omitempty"`
	Interface     string        `yaml:"interface"`
	ControlSocket string        `yaml:"control_socket"`
	JoinAttempts  int           `yaml:"join_attempts"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// WebhookConfig describes where readings are posted.
type WebhookConfig struct {
	URL          string        `yaml:"url"`
	DeviceHeader string        `yaml:"device_header"`
	Timeout      time.Duration `yaml:"timeout"`
	// Payload selects the JSON body shape: "dual" or "scalar".
	Payload string `yaml:"payload"`
	// Discover resolves the URL over mDNS when URL is empty.
	Discover        bool          `yaml:"discover"`
	DiscoverService string        `yaml:"discover_service"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout"`
}

// TimeSourceConfig configures the optional epoch-time endpoint.
type TimeSourceConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	Field   string        `yaml:"field"`
	Timeout time.Duration `yaml:"timeout"`
}

// SensorConfig selects the temperature/humidity part and its bus.
type SensorConfig struct {
	// Model is "aht20" or "shtc3".
	Model string `yaml:"model"`
	// Bus is a periph.io I²C bus name, e.g. "1" or "/dev/i2c-1".
	Bus        string        `yaml:"bus"`
	Address    uint16        `yaml:"address"`
	Fahrenheit bool          `yaml:"fahrenheit"`
	WarmUp     time.Duration `yaml:"warm_up"`
}

// IndicatorConfig assigns indicator outputs. Pins are periph.io GPIO names
// (e.g. "GPIO17"); LEDs are /sys/class/leds entries (e.g. "ACT").
type IndicatorConfig struct {
	FaultPins    []string      `yaml:"fault_pins"`
	FaultLEDs    []string      `yaml:"fault_leds"`
	ActivityPin  string        `yaml:"activity_pin,omitempty"`
	ActivityLED  string        `yaml:"activity_led,omitempty"`
	BlinkCount   int           `yaml:"blink_count"`
	BlinkOn      time.Duration `yaml:"blink_on"`
	BlinkOff     time.Duration `yaml:"blink_off"`
	LEDSysfsRoot string        `yaml:"led_sysfs_root,omitempty"`
}

// OTAConfig lists the firmware files and the repository they are synced from.
type OTAConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	Owner         string        `yaml:"owner"`
	Repo          string        `yaml:"repo"`
	Branch        string        `yaml:"branch"`
	WorkingDir    string        `yaml:"working_dir"`
	Files         []string      `yaml:"files"`
	InstallDir    string        `yaml:"install_dir"`
	ChecksumsFile string        `yaml:"checksums_file,omitempty"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CycleConfig drives the run/sleep/fault policy of the operating cycle.
type CycleConfig struct {
	// Deployed enables sleeping between cycles. When false the node runs
	// exactly one cycle and stops.
	Deployed        bool `yaml:"deployed"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	// DeepSleep powers the board off with an RTC wake alarm instead of
	// sleeping in-process.
	DeepSleep bool `yaml:"deep_sleep"`
	// FaultPolicy is "halt" or "sleep_then_retry".
	FaultPolicy string `yaml:"fault_policy"`
	RTCDevice   string `yaml:"rtc_device"`
	// SkipBootCheck disables the pre-cycle join + OTA boot stage.
	SkipBootCheck bool `yaml:"skip_boot_check"`
}

// MetricsConfig points at the node_exporter textfile collector output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig sets the zap level.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Payload shapes.
const (
	PayloadDual   = "dual"
	PayloadScalar = "scalar"
)

// Fault policies.
const (
	FaultHalt           = "halt"
	FaultSleepThenRetry = "sleep_then_retry"
)

// Sensor models.
const (
	ModelAHT20 = "aht20"
	ModelSHTC3 = "shtc3"
)

// Default returns a Config with every optional field filled in.
func Default() *Config {
	return &Config{
		Version: 1,
		Device: DeviceConfig{
			IdentityInterface: "wlan0",
			MachineIDPath:     "/etc/machine-id",
		},
		WiFi: WiFiConfig{
			Interface:     "wlan0",
			ControlSocket: "/var/run/wpa_supplicant/wlan0",
			JoinAttempts:  30,
			PollInterval:  time.Second,
		},
		Webhook: WebhookConfig{
			DeviceHeader:    "snow-device-mac",
			Timeout:         10 * time.Second,
			Payload:         PayloadDual,
			DiscoverService: "_snownode._tcp",
			DiscoverTimeout: 5 * time.Second,
		},
		TimeSource: TimeSourceConfig{
			Enabled: true,
			URL:     "http://worldtimeapi.org/api/timezone/Etc/UTC",
			Field:   "unixtime",
			Timeout: 10 * time.Second,
		},
		Sensor: SensorConfig{
			Model:  ModelAHT20,
			Bus:    "1",
			WarmUp: time.Second,
		},
		Indicator: IndicatorConfig{
			BlinkCount:   10,
			BlinkOn:      500 * time.Millisecond,
			BlinkOff:     250 * time.Millisecond,
			LEDSysfsRoot: "/sys/class/leds",
		},
		OTA: OTAConfig{
			Enabled:    false,
			BaseURL:    "https://raw.githubusercontent.com",
			Branch:     "main",
			WorkingDir: "firmware",
			InstallDir: "/opt/snownode",
			Timeout:    30 * time.Second,
		},
		Cycle: CycleConfig{
			Deployed:        false,
			IntervalSeconds: 300,
			FaultPolicy:     FaultHalt,
			RTCDevice:       "/sys/class/rtc/rtc0",
		},
	}
}

// Interval returns the sleep interval as a duration.
func (c *CycleConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
