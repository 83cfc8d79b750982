package tlsconfig

import "testing"

func TestBuildSetsServerName(t *testing.T) {
	tc, err := Build("example.test", Files{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tc.ServerName != "example.test" {
		t.Fatalf("ServerName = %q, want example.test", tc.ServerName)
	}
	if tc.InsecureSkipVerify {
		t.Fatalf("InsecureSkipVerify should default to false")
	}
}

func TestBuildRejectsHalfClientCertPair(t *testing.T) {
	_, err := Build("example.test", Files{ClientCert: "cert.pem"})
	if err == nil {
		t.Fatalf("expected error for missing client key")
	}
}

func TestBuildInsecure(t *testing.T) {
	tc, err := Build("example.test", Files{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !tc.InsecureSkipVerify {
		t.Fatalf("expected InsecureSkipVerify true")
	}
}
