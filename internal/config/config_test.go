package config

import "testing"

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("AGRIMART_PORT", "9090")
	t.Setenv("AGRIMART_MYSQL_DSN", "app:secret@tcp(db:3306)/agrimart?parseTime=true")
	t.Setenv("AGRIMART_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("AGRIMART_JWT_SECRET", "s3cret")
	t.Setenv("AGRIMART_LOG_JSON", "false")

	c := FromEnv()
	if c.Port != 9090 {
		t.Errorf("port not overridden: %d", c.Port)
	}
	if c.MySQLDSN != "app:secret@tcp(db:3306)/agrimart?parseTime=true" {
		t.Errorf("dsn not overridden: %s", c.MySQLDSN)
	}
	if c.KafkaBrokers != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("brokers not overridden: %s", c.KafkaBrokers)
	}
	if c.JWTSecret != "s3cret" {
		t.Errorf("secret not overridden: %s", c.JWTSecret)
	}
	if c.LogJSON {
		t.Error("log json not overridden")
	}
}

func TestFromEnv_BadPortIgnored(t *testing.T) {
	t.Setenv("AGRIMART_PORT", "not-a-number")

	c := FromEnv()
	if c.Port != Default().Port {
		t.Errorf("expected default port for bad value, got %d", c.Port)
	}
}
