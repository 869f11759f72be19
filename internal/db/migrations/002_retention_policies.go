package migrations

// RetentionPolicies bounds on-disk history and adds rollup views
var RetentionPolicies = &Migration{
	Name: "002_retention_policies",
	UpSQL: `
	-- Telemetry is high volume, keep 30 days
	SELECT add_retention_policy('drone_positions', INTERVAL '30 days');

	-- Scan statistics are cheap, keep 90 days
	SELECT add_retention_policy('scan_stats', INTERVAL '90 days');

	-- Hourly conflict counts by severity for dashboards
	CREATE MATERIALIZED VIEW IF NOT EXISTS conflict_events_hourly AS
	SELECT
		date_trunc('hour', time) AS hour,
		severity,
		COUNT(*) AS conflict_count,
		MIN(closest_distance_m) AS min_closest_distance_m
	FROM conflict_events
	GROUP BY hour, severity
	WITH NO DATA;

	-- Hourly telemetry volume per drone
	CREATE MATERIALIZED VIEW IF NOT EXISTS drone_positions_hourly
	WITH (timescaledb.continuous) AS
	SELECT
		time_bucket('1 hour', time) AS hour,
		drone_id,
		COUNT(*) AS position_count
	FROM drone_positions
	GROUP BY hour, drone_id
	WITH NO DATA;
	`,
	DownSQL: `
	DROP MATERIALIZED VIEW IF EXISTS drone_positions_hourly;
	DROP MATERIALIZED VIEW IF EXISTS conflict_events_hourly;
	SELECT remove_retention_policy('drone_positions');
	SELECT remove_retention_policy('scan_stats');
	`,
}
