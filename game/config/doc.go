// Package config loads memory game board configurations from a directory of
// JSON files.
//
// A configuration names the symbols on the board (each appears on exactly two
// cards), how long a mismatched pair stays face up, and the idle and
// completion messages:
//
//	{
//	  "name": "classic",
//	  "description": "Eight pairs of letters",
//	  "symbols": ["A", "B", "C", "D", "E", "F", "G", "H"],
//	  "flip_back_delay_ms": 1000,
//	  "messages": {
//	    "idle": "カードをクリックしてスタート！",
//	    "complete": " ゲームクリア！ %d回で全て一致させました！"
//	  }
//	}
//
// Configurations are cached after the first load. The default is classic.json
// when present, otherwise the first valid file, otherwise the built-in classic
// board.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	small, err := manager.LoadConfig("small")
//	configs, err := manager.ListConfigs()
package config
