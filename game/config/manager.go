package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/roverboard/game/mission"
	"github.com/wricardo/mcp-training/roverboard/game/service"
)

// Extension is the file extension of mission scripts in the library
const Extension = ".mission"

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrInvalidMission  = errors.New("invalid mission")
)

// Manager handles mission script loading and caching
type Manager struct {
	missionDir string
	missions   map[string]*mission.Mission
	mu         sync.RWMutex
}

// NewManager creates a new mission library rooted at missionDir
func NewManager(missionDir string) (*Manager, error) {
	// Ensure mission directory exists
	info, err := os.Stat(missionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("mission directory does not exist: %s", missionDir)
		}
		return nil, fmt.Errorf("failed to stat mission directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mission path is not a directory: %s", missionDir)
	}

	return &Manager{
		missionDir: missionDir,
		missions:   make(map[string]*mission.Mission),
	}, nil
}

// Dir returns the directory the library reads from
func (m *Manager) Dir() string {
	return m.missionDir
}

// LoadMission loads a mission by name. The extension is optional.
func (m *Manager) LoadMission(name string) (*mission.Mission, error) {
	name = strings.TrimSuffix(name, Extension)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrMissionNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if cached, exists := m.missions[name]; exists {
		m.mu.RUnlock()
		return cached, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, exists := m.missions[name]; exists {
		return cached, nil
	}

	f, err := os.Open(filepath.Join(m.missionDir, name+Extension))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissionNotFound, name)
		}
		return nil, fmt.Errorf("failed to read mission file: %w", err)
	}
	defer f.Close()

	parsed, err := mission.Parse(name+Extension, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMission, err)
	}
	parsed.Name = name

	m.missions[name] = parsed
	return parsed, nil
}

// ListMissions returns information about all valid missions in the library,
// sorted by name. Scripts that fail to parse are skipped.
func (m *Manager) ListMissions() ([]*service.MissionInfo, error) {
	entries, err := os.ReadDir(m.missionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission directory: %w", err)
	}

	missions := []*service.MissionInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), Extension)
		loaded, err := m.LoadMission(name)
		if err != nil {
			// Skip invalid missions
			continue
		}

		commands := 0
		for _, d := range loaded.Deployments {
			commands += len(d.Commands)
		}

		missions = append(missions, &service.MissionInfo{
			Filename:  entry.Name(),
			MissionID: name,
			GridSize:  loaded.GridSize,
			Rovers:    len(loaded.Deployments),
			Commands:  commands,
		})
	}

	sort.Slice(missions, func(i, j int) bool {
		return missions[i].MissionID < missions[j].MissionID
	})
	return missions, nil
}

// SaveMission writes a mission to the library and caches it
func (m *Manager) SaveMission(name string, ms *mission.Mission) error {
	name = strings.TrimSuffix(name, Extension)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidMission, name)
	}

	path := filepath.Join(m.missionDir, name+Extension)
	if err := os.WriteFile(path, []byte(mission.Format(ms)), 0644); err != nil {
		return fmt.Errorf("failed to write mission file: %w", err)
	}

	m.mu.Lock()
	m.missions[name] = ms
	m.mu.Unlock()

	return nil
}

// RefreshCache drops every cached mission so the next load reads from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.missions = make(map[string]*mission.Mission)
}
