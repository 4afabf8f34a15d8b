package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watcher 监听 .env 文件变化并重新加载播放器参数
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch 监听 path 所在目录，文件被写入或重建时解析其中的播放器参数并回调 onChange。
// 解析失败或校验不通过的内容会交给 onError，原有设置保持不变。
func Watch(path string, onChange func(PlayerSettings), onError func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// 监听目录而不是文件本身，编辑器保存时常常是 rename + create
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	cw := &Watcher{watcher: w, done: make(chan struct{})}
	go cw.loop(abs, onChange, onError)
	return cw, nil
}

func (cw *Watcher) loop(path string, onChange func(PlayerSettings), onError func(error)) {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settings, err := ReadPlayerSettings(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(settings)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close 停止监听
func (cw *Watcher) Close() error {
	err := cw.watcher.Close()
	<-cw.done
	return err
}

// ReadPlayerSettings 从 env 文件读取播放器参数，文件中未出现的键沿用环境变量或默认值
func ReadPlayerSettings(path string) (PlayerSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return PlayerSettings{}, err
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return PlayerSettings{}, fmt.Errorf("parse %s: %w", path, err)
	}

	// 与 Load 一致：进程环境变量优先于文件内容
	lookup := func(key string) (string, bool) {
		if _, set := os.LookupEnv(key); set {
			return "", false
		}
		v, ok := values[key]
		return v, ok
	}

	settings := playerFromEnv()
	if v, ok := lookup("PLAYER_RESTART_THRESHOLD"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			settings.RestartThreshold = d
		}
	}
	if v, ok := lookup("PLAYER_DEFAULT_VOLUME"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			settings.DefaultVolume = n
		}
	}
	if v, ok := lookup("PLAYER_READY_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			settings.ReadyTimeout = d
		}
	}
	if v, ok := lookup("PLAYER_PROBE_MEDIA"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.ProbeMedia = b
		}
	}

	if err := settings.Validate(); err != nil {
		return PlayerSettings{}, err
	}
	return settings, nil
}
