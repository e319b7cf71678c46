package main

import (
	"net"
	"testing"
	"time"
)

func TestParseTCPKeepAlive(t *testing.T) {
	tests := []struct {
		in      string
		want    net.KeepAliveConfig
		wantErr bool
	}{
		{in: "on", want: net.KeepAliveConfig{Enable: true}},
		{in: " OFF ", want: net.KeepAliveConfig{}},
		{in: "45:45:3", want: net.KeepAliveConfig{Enable: true, Idle: 45 * time.Second, Interval: 45 * time.Second, Count: 3}},
		{in: "10: 5 :2", want: net.KeepAliveConfig{Enable: true, Idle: 10 * time.Second, Interval: 5 * time.Second, Count: 2}},
		{in: "", wantErr: true},
		{in: "45:45", wantErr: true},
		{in: "0:45:3", wantErr: true},
		{in: "45:x:3", wantErr: true},
		{in: "45:45:-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTCPKeepAlive(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
}
