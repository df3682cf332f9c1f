package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// 演示场景的配置，缺省值够跑一个完整场景，mwdemo.toml存在时覆盖
type demoConfig struct {
	Kernel   kernelConfig   `toml:"kernel"`
	Queue    queueConfig    `toml:"queue"`
	Scenario scenarioConfig `toml:"scenario"`
}

type kernelConfig struct {
	HeapBytes int64 `toml:"heap_bytes"`
}

type queueConfig struct {
	Capacity int `toml:"capacity"`
}

type scenarioConfig struct {
	Rounds         int `toml:"rounds"`
	WaiterPriority int `toml:"waiter_priority"`
}

func defaultConfig() demoConfig {
	return demoConfig{
		Kernel:   kernelConfig{HeapBytes: 64 << 10},
		Queue:    queueConfig{Capacity: 4},
		Scenario: scenarioConfig{Rounds: 9, WaiterPriority: 2},
	}
}

func loadConfig(path string) (demoConfig, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
