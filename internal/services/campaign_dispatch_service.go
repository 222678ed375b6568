package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CampaignDispatchService periodically services running campaigns: it hands
// pending schedules to online devices and completes campaigns whose schedules
// have all settled. A dispatch pass also runs synchronously on campaign
// start; this loop catches devices that came online later.
type CampaignDispatchService struct {
	campaigns *CampaignService
	interval  time.Duration
	stopChan  chan bool
}

func NewCampaignDispatchService(campaigns *CampaignService) *CampaignDispatchService {
	return &CampaignDispatchService{
		campaigns: campaigns,
		interval:  30 * time.Second,
		stopChan:  make(chan bool),
	}
}

// Start starts the dispatch loop
func (s *CampaignDispatchService) Start() {
	go s.run()
	logrus.Info("Campaign dispatch service started")
}

// Stop stops the dispatch loop
func (s *CampaignDispatchService) Stop() {
	s.stopChan <- true
	logrus.Info("Campaign dispatch service stopped")
}

// run runs the dispatch loop
func (s *CampaignDispatchService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run initial pass
	s.dispatchPass()

	for {
		select {
		case <-ticker.C:
			s.dispatchPass()
		case <-s.stopChan:
			return
		}
	}
}

// dispatchPass services every running campaign once
func (s *CampaignDispatchService) dispatchPass() {
	running, err := s.campaigns.RunningCampaigns()
	if err != nil {
		logrus.Errorf("Failed to list running campaigns: %v", err)
		return
	}

	for _, campaign := range running {
		dispatched, err := s.campaigns.DispatchPending(campaign)
		if err != nil {
			logrus.Errorf("Dispatch pass for campaign %s failed: %v", campaign.ID, err)
			continue
		}
		if dispatched > 0 {
			logrus.Infof("Dispatched %d call(s) for campaign %s", dispatched, campaign.ID)
			continue
		}

		done, err := s.campaigns.CompleteIfDone(campaign)
		if err != nil {
			logrus.Errorf("Completion check for campaign %s failed: %v", campaign.ID, err)
			continue
		}
		if done {
			logrus.Debugf("Campaign %s closed by dispatch pass", campaign.ID)
		}
	}
}

// SetInterval sets the dispatch interval
func (s *CampaignDispatchService) SetInterval(interval time.Duration) {
	s.interval = interval
}
