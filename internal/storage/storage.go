package storage

import (
	"encoding/json"
	"fmt"
	stdlog "log"
	"time"

	"github.com/keshon/datastore"
	"github.com/rs/zerolog"
)

const (
	guildsKey   = "guilds"
	backupCount = 3
)

// GuildRecord is the persisted configuration of one guild.
type GuildRecord struct {
	GuildID           string `json:"guild_id"`
	MusicChannelID    string `json:"music_channel_id"`
	ChannelConfigured bool   `json:"channel_configured"`
}

// Storage persists guild records through a JSON-file datastore with
// periodic saves and rotating backups.
type Storage struct {
	ds *datastore.DataStore
}

func New(filePath string, saveInterval time.Duration, log zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.AutoSaveInterval = saveInterval
	cfg.BackupCount = backupCount
	cfg.Logger = stdlog.New(log, "", 0)

	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Save forces an immediate write to disk. The datastore skips the write
// when nothing has changed since the last save.
func (s *Storage) Save() error {
	return s.ds.SaveToFile()
}

// Guilds returns all persisted guild records.
func (s *Storage) Guilds() ([]GuildRecord, error) {
	data, exists := s.ds.Get(guildsKey)
	if !exists {
		return nil, nil
	}

	// The datastore hands back what json.Unmarshal produced for the whole
	// file, so round-trip through JSON to get typed records.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var records []GuildRecord
	if err := json.Unmarshal(jsonData, &records); err != nil {
		return nil, fmt.Errorf("error unmarshalling to []GuildRecord: %w", err)
	}
	return records, nil
}

// Guild returns the record for one guild, if present.
func (s *Storage) Guild(guildID string) (GuildRecord, bool, error) {
	records, err := s.Guilds()
	if err != nil {
		return GuildRecord{}, false, err
	}
	for _, rec := range records {
		if rec.GuildID == guildID {
			return rec, true, nil
		}
	}
	return GuildRecord{}, false, nil
}

// SetMusicChannel records channelID as the designated music channel of
// guildID and marks the guild as configured.
func (s *Storage) SetMusicChannel(guildID, channelID string) error {
	records, err := s.Guilds()
	if err != nil {
		return err
	}

	updated := false
	for i, rec := range records {
		if rec.GuildID == guildID {
			records[i].MusicChannelID = channelID
			records[i].ChannelConfigured = true
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, GuildRecord{
			GuildID:           guildID,
			MusicChannelID:    channelID,
			ChannelConfigured: true,
		})
	}

	s.ds.Add(guildsKey, records)
	return nil
}
