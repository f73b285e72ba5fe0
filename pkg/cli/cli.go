package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	MIDIPath  string        // 再生するSMFファイルのパス（"-"は標準入力）
	SoundFont string        // SoundFont (.sf2) ファイルのパス
	Beeper    bool          // 矩形波ビープ音で再生する
	Framed    bool          // 入力をシリアルフレーム形式として扱う
	Channel   int           // 再生するMIDIチャンネル（-1は全チャンネル）
	ChunkSize int           // デコーダへ渡すフラグメントサイズ
	Timeout   time.Duration // タイムアウト時間（0は無制限）
	LogLevel  string        // ログレベル（debug, info, warn, error）
	Headless  bool          // ヘッドレスモード（音声出力なし）
	ShowHelp  bool          // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("fue", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.StringVar(&config.SoundFont, "s", "", "SoundFontファイルのパス（短縮形）")
	fs.BoolVar(&config.Beeper, "beeper", false, "矩形波ビープ音で再生")
	fs.BoolVar(&config.Framed, "framed", false, "入力をシリアルフレームとして扱う")
	fs.IntVar(&config.Channel, "channel", -1, "再生するMIDIチャンネル（-1は全て）")
	fs.IntVar(&config.Channel, "c", -1, "再生するMIDIチャンネル（短縮形）")
	fs.IntVar(&config.ChunkSize, "chunk-size", 32, "デコーダへ渡すフラグメントサイズ")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// チャンネルの検証
	if config.Channel < -1 || config.Channel > 15 {
		return nil, fmt.Errorf("channel must be -1..15, got %d", config.Channel)
	}

	// フラグメントサイズの検証
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk-size must be positive, got %d", config.ChunkSize)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（SMFファイルのパス）
	if fs.NArg() > 0 {
		config.MIDIPath = fs.Arg(0)
	}

	return config, nil
}

// boolFlags 値を取らないフラグの一覧
var boolFlags = map[string]bool{
	"-h": true, "--help": true,
	"--headless": true,
	"--beeper":   true,
	"--framed":   true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' && arg != "-" {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合）
			if i+1 < len(args) && len(args[i+1]) > 0 && !boolFlags[arg] {
				if args[i+1][0] != '-' || args[i+1] == "-" {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `fue - streaming MIDI file player

Usage:
  fue [options] <file.mid>

Arguments:
  file.mid      再生するSMFファイル（"-"を指定すると標準入力から読み込む）

Options:
  -s, --soundfont <path>      SoundFont (.sf2) ファイル
  --beeper                    SoundFontの代わりに矩形波ビープ音で再生
  --framed                    入力をシリアルフレーム形式として扱う
  -c, --channel <n>           再生するMIDIチャンネル: 0-15（デフォルト: 全て）
  --chunk-size <bytes>        デコーダへ渡すフラグメントサイズ（デフォルト: 32）
  -t, --timeout <seconds>     指定秒数後に再生を打ち切る（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  音声出力なしでデコードのみ行う
  -h, --help                  このヘルプを表示

Environment Variables:
  SOUNDFONT=<path>            SoundFontファイル
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Examples:
  fue -s font.sf2 song.mid        SoundFontで再生
  fue --beeper song.mid           ビープ音で再生
  fue --headless song.mid         デコードのみ（動作確認用）
  cat song.bin | fue --framed --beeper -   シリアルフレーム列を再生
`)
}
