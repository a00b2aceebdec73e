package triage

const (
	clusterMinSamples     = 5
	clusterDirectionRatio = 0.8
	clusterLowTrustRatio  = 0.6
	lowTrustScore         = 0.6
)

// ClusterSample is one recent report against the same provider.
type ClusterSample struct {
	PriceDelta float64
	UserTrust  float64
}

// ClusterResult flags a burst of same-direction reports from low-trust users.
type ClusterResult struct {
	Suspicious bool   `json:"suspicious"`
	Reason     string `json:"reason,omitempty"`
}

// DetectCluster looks for coordinated price manipulation across reports.
func DetectCluster(samples []ClusterSample) ClusterResult {
	if len(samples) < clusterMinSamples {
		return ClusterResult{}
	}

	up, down, lowTrust := 0, 0, 0
	for _, s := range samples {
		switch {
		case s.PriceDelta > 0:
			up++
		case s.PriceDelta < 0:
			down++
		}
		if s.UserTrust < lowTrustScore {
			lowTrust++
		}
	}

	total := float64(len(samples))
	dominant := up
	if down > dominant {
		dominant = down
	}

	if float64(dominant)/total >= clusterDirectionRatio && float64(lowTrust)/total >= clusterLowTrustRatio {
		return ClusterResult{Suspicious: true, Reason: "cluster_manipulation"}
	}
	return ClusterResult{}
}
