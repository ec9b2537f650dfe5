package netshield

import "testing"

func TestExtractEndpointsBasic(t *testing.T) {
	t.Parallel()

	endpoints := ExtractEndpoints("src,dst,proto", "1.2.3.4,5.6.7.8,tcp")
	if endpoints.Src == nil || *endpoints.Src != "1.2.3.4" {
		t.Fatalf("expected src 1.2.3.4, got %v", endpoints.Src)
	}
	if endpoints.Dst == nil || *endpoints.Dst != "5.6.7.8" {
		t.Fatalf("expected dst 5.6.7.8, got %v", endpoints.Dst)
	}
}

func TestExtractEndpointsIPColumnNames(t *testing.T) {
	t.Parallel()

	endpoints := ExtractEndpoints("flow_id, Src_IP , DST_IP ,label", "77, 10.0.0.1 , 10.0.0.2 ,Benign")
	if endpoints.Src == nil || *endpoints.Src != "10.0.0.1" {
		t.Fatalf("expected trimmed src 10.0.0.1, got %v", endpoints.Src)
	}
	if endpoints.Dst == nil || *endpoints.Dst != "10.0.0.2" {
		t.Fatalf("expected trimmed dst 10.0.0.2, got %v", endpoints.Dst)
	}
}

func TestExtractEndpointsShortRow(t *testing.T) {
	t.Parallel()

	// Row is shorter than the header; only indices with values may match.
	endpoints := ExtractEndpoints("proto,src,dst", "tcp,9.9.9.9")
	if endpoints.Src == nil || *endpoints.Src != "9.9.9.9" {
		t.Fatalf("expected src 9.9.9.9, got %v", endpoints.Src)
	}
	if endpoints.Dst != nil {
		t.Fatalf("expected absent dst, got %q", *endpoints.Dst)
	}
}

func TestExtractEndpointsNoRecognizedColumns(t *testing.T) {
	t.Parallel()

	endpoints := ExtractEndpoints("pktcount,bytecount,dur", "10,2048,3.5")
	if endpoints.Src != nil || endpoints.Dst != nil {
		t.Fatalf("expected both endpoints absent, got %+v", endpoints)
	}
}

func TestEndpointsFromPayloadSingleLine(t *testing.T) {
	t.Parallel()

	endpoints := EndpointsFromPayload([]byte("src,dst,proto"))
	if endpoints.Src != nil || endpoints.Dst != nil {
		t.Fatalf("expected absent endpoints for header-only payload, got %+v", endpoints)
	}

	endpoints = EndpointsFromPayload(nil)
	if endpoints.Src != nil || endpoints.Dst != nil {
		t.Fatalf("expected absent endpoints for empty payload, got %+v", endpoints)
	}
}

func TestEndpointsFromPayloadCRLF(t *testing.T) {
	t.Parallel()

	endpoints := EndpointsFromPayload([]byte("src,dst\r\n1.1.1.1,2.2.2.2\r\nrest,ignored\r\n"))
	if endpoints.Src == nil || *endpoints.Src != "1.1.1.1" {
		t.Fatalf("expected src 1.1.1.1, got %v", endpoints.Src)
	}
	if endpoints.Dst == nil || *endpoints.Dst != "2.2.2.2" {
		t.Fatalf("expected dst 2.2.2.2, got %v", endpoints.Dst)
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := FirstLine([]byte("pktcount,bytecount\r\n1,2\n")); got != "pktcount,bytecount" {
		t.Fatalf("unexpected first line %q", got)
	}
	if got := FirstLine(nil); got != "" {
		t.Fatalf("expected empty first line for nil payload, got %q", got)
	}
}
