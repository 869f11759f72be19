package migrations

// InitialSchema creates the initial database schema
var InitialSchema = &Migration{
	Name: "001_initial_schema",
	UpSQL: `
		-- Enable TimescaleDB extension
		CREATE EXTENSION IF NOT EXISTS timescaledb;

		-- Telemetry history, one row per position report
		CREATE TABLE IF NOT EXISTS drone_positions (
			time TIMESTAMPTZ NOT NULL,
			drone_id TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			altitude_m DOUBLE PRECISION,
			heading_deg DOUBLE PRECISION,
			speed_mps DOUBLE PRECISION
		);

		SELECT create_hypertable('drone_positions', 'time');

		CREATE INDEX IF NOT EXISTS idx_drone_positions_drone_id ON drone_positions (drone_id);

		-- Conflict events, one row per conflict per scan
		CREATE TABLE IF NOT EXISTS conflict_events (
			event_id TEXT PRIMARY KEY,
			time TIMESTAMPTZ NOT NULL,
			drone1_id TEXT NOT NULL,
			drone2_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			distance_m DOUBLE PRECISION,
			time_to_closest DOUBLE PRECISION,
			closest_distance_m DOUBLE PRECISION,
			cpa_latitude DOUBLE PRECISION,
			cpa_longitude DOUBLE PRECISION,
			cpa_altitude_m DOUBLE PRECISION
		);

		CREATE INDEX IF NOT EXISTS idx_conflict_events_time ON conflict_events (time);
		CREATE INDEX IF NOT EXISTS idx_conflict_events_drone1 ON conflict_events (drone1_id);
		CREATE INDEX IF NOT EXISTS idx_conflict_events_drone2 ON conflict_events (drone2_id);
		CREATE INDEX IF NOT EXISTS idx_conflict_events_severity ON conflict_events (severity);

		-- Scan loop statistics
		CREATE TABLE IF NOT EXISTS scan_stats (
			time TIMESTAMPTZ NOT NULL,
			telemetry_received BIGINT NOT NULL,
			telemetry_parsed BIGINT NOT NULL,
			telemetry_rejected BIGINT NOT NULL,
			scans_completed BIGINT NOT NULL,
			conflicts_warning BIGINT NOT NULL,
			conflicts_critical BIGINT NOT NULL,
			tracked_drones BIGINT NOT NULL,
			scan_time_ms BIGINT NOT NULL
		);

		SELECT create_hypertable('scan_stats', 'time');
	`,
	DownSQL: `
		DROP TABLE IF EXISTS scan_stats;
		DROP TABLE IF EXISTS conflict_events;
		DROP TABLE IF EXISTS drone_positions;
	`,
}
